package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hmaulana/kawanan/internal/config"
	"github.com/hmaulana/kawanan/pkg/agent"
	"github.com/hmaulana/kawanan/pkg/chat"
	"github.com/hmaulana/kawanan/pkg/tool"
)

// Mode selects the backend a run speaks to.
type Mode string

const (
	ModeOpenAI    Mode = "openai"
	ModeOllama    Mode = "ollama"
	ModeGemini    Mode = "gemini"
	ModeAnthropic Mode = "anthropic"
)

// Config configures an Orchestrator.
type Config struct {
	// Mode is required; empty or unknown modes fail construction.
	Mode Mode

	// APIKey and BaseURL override what internal/config resolves for the
	// mode.
	APIKey  string
	BaseURL string

	// ConfigFile optionally points at a JSON credentials file.
	ConfigFile string

	// Client overrides the transport entirely; used by tests and callers
	// with custom plumbing.
	Client chat.Client

	Logger zerolog.Logger
}

// Orchestrator drives the turn loop against one configured backend.
type Orchestrator struct {
	mode    Mode
	client  chat.Client
	dialect dialect
	logger  zerolog.Logger
}

// New validates the mode, resolves credentials and builds the transport.
// All configuration errors surface here, before any run starts.
func New(cfg Config) (*Orchestrator, error) {
	switch cfg.Mode {
	case ModeOpenAI, ModeOllama, ModeGemini, ModeAnthropic:
	case "":
		return nil, fmt.Errorf("%w: mode required", ErrConfig)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrConfig, cfg.Mode)
	}

	client := cfg.Client
	if client == nil {
		resolved, err := config.Load(cfg.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		creds := resolved.ForMode(string(cfg.Mode))
		if cfg.APIKey != "" {
			creds.APIKey = cfg.APIKey
		}
		if cfg.BaseURL != "" {
			creds.BaseURL = cfg.BaseURL
		}

		if cfg.Mode == ModeGemini && creds.APIKey == "" {
			return nil, fmt.Errorf("%w: gemini mode requires GEMINI_API_KEY", ErrConfig)
		}

		switch cfg.Mode {
		case ModeAnthropic:
			client = chat.NewAnthropicClient(chat.AnthropicConfig{
				APIKey:  creds.APIKey,
				BaseURL: creds.BaseURL,
			})
		default:
			client = chat.NewOpenAIClient(chat.OpenAIConfig{
				APIKey:  creds.APIKey,
				BaseURL: creds.BaseURL,
			})
		}
	}

	var d dialect = toolRoleDialect{}
	if cfg.Mode == ModeGemini {
		d = inlineDialect{}
	}

	return &Orchestrator{
		mode:    cfg.Mode,
		client:  client,
		dialect: d,
		logger:  cfg.Logger,
	}, nil
}

// Mode returns the configured backend mode.
func (o *Orchestrator) Mode() Mode { return o.mode }

// runLogger derives the per-run logger: a run_id on every event, raised to
// debug level when the run asks for it.
func (o *Orchestrator) runLogger(debug bool) zerolog.Logger {
	logger := o.logger
	if debug {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return logger.With().Str("run_id", uuid.NewString()).Logger()
}

// buildRequest assembles the wire request for one turn: resolved
// instructions up front, tool schemas with the context-variables property
// stripped, and the parallel flag only when tools ride along.
func (o *Orchestrator) buildRequest(active *agent.Agent, history []chat.Message, cv agent.ContextVars, params RunParams) (chat.Request, error) {
	model := params.ModelOverride
	if model == "" {
		model = active.Model
	}
	if model == "" {
		return chat.Request{}, fmt.Errorf("%w: agent %s has no model and no override was given", ErrConfig, active.Name)
	}

	messages := make([]chat.Message, 0, len(history)+1)
	messages = append(messages, chat.Message{
		Role:    chat.RoleSystem,
		Content: active.ResolveInstructions(cv),
	})
	messages = append(messages, history...)

	req := chat.Request{
		Model:      model,
		Messages:   messages,
		ToolChoice: active.ToolChoice,
		Extra:      params.ModelConfig,
	}

	for _, t := range active.Tools {
		req.Tools = append(req.Tools, chat.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  stripContextVars(t.Parameters),
		})
	}
	if len(req.Tools) > 0 {
		parallel := active.ParallelToolCalls
		req.ParallelToolCalls = &parallel
	}

	return req, nil
}

// stripContextVars removes the hidden context-variables property from a
// parameter schema without touching the registered original.
func stripContextVars(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}

	if props, ok := out["properties"].(map[string]any); ok {
		if _, hidden := props[tool.ContextVarsKey]; hidden {
			cleaned := make(map[string]any, len(props))
			for k, v := range props {
				if k != tool.ContextVarsKey {
					cleaned[k] = v
				}
			}
			out["properties"] = cleaned
		}
	}

	switch required := out["required"].(type) {
	case []any:
		cleaned := make([]any, 0, len(required))
		for _, name := range required {
			if name != tool.ContextVarsKey {
				cleaned = append(cleaned, name)
			}
		}
		out["required"] = cleaned
	case []string:
		cleaned := make([]string, 0, len(required))
		for _, name := range required {
			if name != tool.ContextVarsKey {
				cleaned = append(cleaned, name)
			}
		}
		out["required"] = cleaned
	}

	return out
}

// invoke issues one blocking completion, applying the dialect's retry
// policy: tool-capable dialects get one retry with tool fields stripped,
// restrictive dialects fail immediately. Both terminal failures are
// configuration errors.
func (o *Orchestrator) invoke(ctx context.Context, logger zerolog.Logger, req chat.Request) (*chat.Completion, error) {
	completion, err := o.client.Complete(ctx, req)
	if err == nil {
		return completion, nil
	}

	if !o.dialect.retryWithoutTools() || len(req.Tools) == 0 {
		return nil, fmt.Errorf("%w: completion rejected: %w", ErrConfig, err)
	}

	logger.Warn().Err(err).Msg("completion rejected, retrying without tools")
	completion, err = o.client.Complete(ctx, stripTools(req))
	if err != nil {
		return nil, fmt.Errorf("%w: completion rejected after retry without tools: %w", ErrConfig, err)
	}
	return completion, nil
}

// openStream opens a streaming completion under the same retry policy as
// invoke.
func (o *Orchestrator) openStream(ctx context.Context, logger zerolog.Logger, req chat.Request) (chat.DeltaStream, error) {
	stream, err := o.client.Stream(ctx, req)
	if err == nil {
		return stream, nil
	}

	if !o.dialect.retryWithoutTools() || len(req.Tools) == 0 {
		return nil, fmt.Errorf("%w: stream rejected: %w", ErrConfig, err)
	}

	logger.Warn().Err(err).Msg("stream rejected, retrying without tools")
	stream, err = o.client.Stream(ctx, stripTools(req))
	if err != nil {
		return nil, fmt.Errorf("%w: stream rejected after retry without tools: %w", ErrConfig, err)
	}
	return stream, nil
}

func stripTools(req chat.Request) chat.Request {
	stripped := req
	stripped.Tools = nil
	stripped.ToolChoice = ""
	stripped.ParallelToolCalls = nil
	return stripped
}
