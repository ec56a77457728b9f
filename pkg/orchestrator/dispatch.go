package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hmaulana/kawanan/pkg/agent"
	"github.com/hmaulana/kawanan/pkg/chat"
	"github.com/hmaulana/kawanan/pkg/tool"
)

// dispatchOutcome collects one batch of tool executions: the history
// messages to append, the merged context updates, and the last handoff.
type dispatchOutcome struct {
	messages    []chat.Message
	contextVars agent.ContextVars
	agent       *agent.Agent
}

// dispatchToolCalls executes a batch in call order. A call to an unknown
// tool becomes an in-history error message and the batch continues;
// malformed arguments, failed validation and handler errors abort the run.
func (o *Orchestrator) dispatchToolCalls(ctx context.Context, logger zerolog.Logger, active *agent.Agent, calls []chat.ToolCall, cv agent.ContextVars) (*dispatchOutcome, error) {
	// The lookup map is rebuilt per batch so a handoff earlier in the run
	// never leaks tools across agents.
	byName := make(map[string]*tool.Tool, len(active.Tools))
	for _, t := range active.Tools {
		byName[t.Name] = t
	}

	outcome := &dispatchOutcome{contextVars: agent.ContextVars{}}

	for _, call := range calls {
		name := call.Function.Name

		t, ok := byName[name]
		if !ok {
			logger.Warn().Str("tool", name).Msg("tool not found, recording error in history")
			outcome.messages = append(outcome.messages, o.dialect.formatMissingTool(call))
			continue
		}

		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("tool %s: malformed arguments %q: %w", name, call.Function.Arguments, err)
			}
		}

		if err := t.ValidateArgs(args); err != nil {
			return nil, err
		}

		if t.InjectContextVars {
			// Every call in a batch sees the batch-start map; result
			// updates reach the run map only between batches.
			args[tool.ContextVarsKey] = map[string]any(cv.Clone())
		}

		logger.Debug().Str("tool", name).Any("args", args).Msg("dispatching tool call")

		raw, err := t.Func(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}

		result, err := normalizeResult(name, raw)
		if err != nil {
			return nil, err
		}

		outcome.messages = append(outcome.messages, o.dialect.formatToolResult(call, args, result.Value))
		outcome.contextVars = outcome.contextVars.Merge(result.ContextVariables)
		if result.Agent != nil {
			outcome.agent = result.Agent
		}
	}

	return outcome, nil
}
