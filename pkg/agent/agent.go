package agent

import (
	"fmt"

	"github.com/hmaulana/kawanan/pkg/tool"
)

// DefaultInstructions is used when an agent carries no instructions at all.
const DefaultInstructions = "You are a helpful agent."

// ContextVars is the mutable key/value state threaded through a run.
type ContextVars map[string]any

// Clone returns a shallow copy of the map. Values are shared; callers that
// store mutable values own their aliasing.
func (cv ContextVars) Clone() ContextVars {
	if cv == nil {
		return ContextVars{}
	}
	out := make(ContextVars, len(cv))
	for k, v := range cv {
		out[k] = v
	}
	return out
}

// Merge returns a copy of cv with updates applied, last write wins.
func (cv ContextVars) Merge(updates ContextVars) ContextVars {
	out := cv.Clone()
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// String returns the value under key as a string, or fallback when the key
// is absent or not a string.
func (cv ContextVars) String(key, fallback string) string {
	if v, ok := cv[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// InstructionsFunc derives instructions from the run's context variables.
type InstructionsFunc func(cv ContextVars) string

// Agent is one conversational persona with its tool set.
type Agent struct {
	Name  string
	Model string

	// Instructions is the static system prompt; InstructionsFunc takes
	// precedence when set.
	Instructions     string
	InstructionsFunc InstructionsFunc

	Tools []*tool.Tool

	// ToolChoice is "auto", "none" or "required"; empty means provider
	// default.
	ToolChoice string

	// ParallelToolCalls is only transmitted when the request carries tools.
	ParallelToolCalls bool
}

// Option configures an Agent during New.
type Option func(*Agent)

// WithModel sets the model the agent requests.
func WithModel(model string) Option {
	return func(a *Agent) { a.Model = model }
}

// WithInstructions sets the static system prompt.
func WithInstructions(instructions string) Option {
	return func(a *Agent) { a.Instructions = instructions }
}

// WithInstructionsFunc sets a context-variable-aware system prompt.
func WithInstructionsFunc(fn InstructionsFunc) Option {
	return func(a *Agent) { a.InstructionsFunc = fn }
}

// WithTools adds tools to the agent.
func WithTools(tools ...*tool.Tool) Option {
	return func(a *Agent) { a.Tools = append(a.Tools, tools...) }
}

// WithToolChoice sets the tool choice mode.
func WithToolChoice(choice string) Option {
	return func(a *Agent) { a.ToolChoice = choice }
}

// WithParallelToolCalls overrides the parallel tool call flag.
func WithParallelToolCalls(enabled bool) Option {
	return func(a *Agent) { a.ParallelToolCalls = enabled }
}

// New builds an agent. Duplicate tool names are rejected here so the
// dispatcher's name lookup is unambiguous for every agent built through the
// constructor.
func New(name string, opts ...Option) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent name required")
	}

	a := &Agent{
		Name:              name,
		ParallelToolCalls: true,
	}
	for _, opt := range opts {
		opt(a)
	}

	seen := make(map[string]struct{}, len(a.Tools))
	for _, t := range a.Tools {
		if t == nil {
			return nil, fmt.Errorf("agent %s: nil tool", name)
		}
		if _, dup := seen[t.Name]; dup {
			return nil, fmt.Errorf("agent %s: duplicate tool name %s", name, t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	return a, nil
}

// ResolveInstructions returns the system prompt for this run.
func (a *Agent) ResolveInstructions(cv ContextVars) string {
	if a.InstructionsFunc != nil {
		return a.InstructionsFunc(cv)
	}
	if a.Instructions != "" {
		return a.Instructions
	}
	return DefaultInstructions
}
