package orchestrator

import (
	"context"
	"fmt"
	"math"

	"github.com/hmaulana/kawanan/pkg/agent"
	"github.com/hmaulana/kawanan/pkg/chat"
)

// NoTurnLimit lets a run continue until the model stops calling tools.
const NoTurnLimit = math.MaxInt

// RunParams are the per-run knobs.
type RunParams struct {
	// ContextVariables seeds the run's mutable state; copied at entry.
	ContextVariables agent.ContextVars

	// ModelOverride replaces every agent's model for this run.
	ModelOverride string

	// ModelConfig is merged into each request body as-is.
	ModelConfig map[string]any

	// MaxTurns caps appended messages; 0 returns without calling the
	// backend.
	MaxTurns int

	// ExecuteTools false stops the run after the first assistant message,
	// leaving requested tool calls unexecuted in history.
	ExecuteTools bool

	// Debug raises this run's logging to debug level.
	Debug bool
}

// DefaultRunParams returns the params Run uses for a plain conversation.
func DefaultRunParams() RunParams {
	return RunParams{
		MaxTurns:     NoTurnLimit,
		ExecuteTools: true,
	}
}

// Run drives the blocking turn loop: request a completion for the active
// agent, execute requested tool calls, fold updates and handoffs back in,
// and repeat until the model answers without tool calls or MaxTurns is
// reached. The returned Response holds only messages appended past the
// caller's history.
func (o *Orchestrator) Run(ctx context.Context, start *agent.Agent, messages []chat.Message, params RunParams) (*agent.Response, error) {
	if start == nil {
		return nil, fmt.Errorf("%w: starting agent required", ErrConfig)
	}

	logger := o.runLogger(params.Debug)

	cv := params.ContextVariables.Clone()
	history := cloneHistory(messages)
	initLen := len(history)
	active := start

	for len(history)-initLen < params.MaxTurns {
		req, err := o.buildRequest(active, history, cv, params)
		if err != nil {
			return nil, err
		}

		logger.Debug().
			Str("agent", active.Name).
			Str("model", req.Model).
			Int("history_len", len(history)).
			Msg("requesting completion")

		completion, err := o.invoke(ctx, logger, req)
		if err != nil {
			return nil, err
		}

		msg := completion.Message
		msg.Sender = active.Name
		history = append(history, o.dialect.formatAssistantMessage(msg))

		if len(msg.ToolCalls) == 0 {
			logger.Debug().Msg("no tool calls, ending run")
			break
		}
		if !params.ExecuteTools {
			logger.Debug().Msg("tool execution disabled, ending run")
			break
		}

		outcome, err := o.dispatchToolCalls(ctx, logger, active, msg.ToolCalls, cv)
		if err != nil {
			return nil, err
		}

		history = append(history, outcome.messages...)
		cv = cv.Merge(outcome.contextVars)
		if outcome.agent != nil {
			logger.Debug().Str("from", active.Name).Str("to", outcome.agent.Name).Msg("agent handoff")
			active = outcome.agent
		}
	}

	if len(history) > initLen {
		last := len(history) - 1
		history[last] = o.dialect.postprocessFinalMessage(history[last])
	}

	return &agent.Response{
		Messages:         history[initLen:],
		Agent:            active,
		ContextVariables: cv,
	}, nil
}

func cloneHistory(messages []chat.Message) []chat.Message {
	history := make([]chat.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, msg.Clone())
	}
	return history
}
