// Package tool defines the callable functions an agent exposes to the model:
// registration, JSON-schema derivation from Go structs, opt-in context
// variable injection, and opt-in strict argument validation.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ContextVarsKey is the argument key under which run context variables are
// injected into opted-in tools. The key is hidden from transmitted schemas.
const ContextVarsKey = "context_variables"

// Func is a tool handler. args holds the decoded call arguments; when the
// tool opted in via WithContextVars, args[ContextVarsKey] carries the run's
// context variables as a map[string]any.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Tool is one registered function.
type Tool struct {
	Name        string
	Description string

	// Parameters is the JSON-schema object advertised to the model.
	Parameters map[string]any

	Func Func

	// InjectContextVars makes the dispatcher pass the run's context
	// variables under ContextVarsKey.
	InjectContextVars bool

	// StrictArgs validates decoded arguments against Parameters before the
	// handler runs; a failed validation aborts the run.
	StrictArgs bool

	schema *gojsonschema.Schema
	err    error
}

// Option configures a Tool during New.
type Option func(*Tool)

// WithDescription sets the description advertised to the model.
func WithDescription(desc string) Option {
	return func(t *Tool) { t.Description = desc }
}

// WithParameters sets the parameter schema directly.
func WithParameters(params map[string]any) Option {
	return func(t *Tool) { t.Parameters = params }
}

// WithParamsStruct derives the parameter schema from T's fields, honoring
// json and jsonschema_description struct tags.
func WithParamsStruct[T any]() Option {
	return func(t *Tool) {
		reflector := jsonschema.Reflector{
			DoNotReference:            true,
			AllowAdditionalProperties: true,
		}
		var v T
		schema := reflector.Reflect(&v)

		raw, err := json.Marshal(schema)
		if err != nil {
			t.err = fmt.Errorf("reflect params schema: %w", err)
			return
		}
		var params map[string]any
		if err := json.Unmarshal(raw, &params); err != nil {
			t.err = fmt.Errorf("reflect params schema: %w", err)
			return
		}
		delete(params, "$schema")
		delete(params, "$id")
		t.Parameters = params
	}
}

// WithContextVars opts the tool into context variable injection.
func WithContextVars() Option {
	return func(t *Tool) { t.InjectContextVars = true }
}

// WithStrictArgs opts the tool into argument validation against its schema.
func WithStrictArgs() Option {
	return func(t *Tool) { t.StrictArgs = true }
}

// New registers a tool. The name must be non-empty and the handler non-nil;
// strict-args tools get their schema compiled here so a bad schema fails at
// registration, not at dispatch.
func New(name string, fn Func, opts ...Option) (*Tool, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("tool name required")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: handler required", name)
	}

	t := &Tool{
		Name: name,
		Func: fn,
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, t.err)
	}

	if t.StrictArgs {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Parameters))
		if err != nil {
			return nil, fmt.Errorf("tool %s: compile schema: %w", name, err)
		}
		t.schema = schema
	}

	return t, nil
}

// ValidateArgs checks args against the compiled schema. It is a no-op for
// tools without StrictArgs.
func (t *Tool) ValidateArgs(args map[string]any) error {
	if t.schema == nil {
		return nil
	}

	result, err := t.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("tool %s: validate args: %w", t.Name, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("tool %s: invalid arguments: %s", t.Name, strings.Join(details, "; "))
	}
	return nil
}
