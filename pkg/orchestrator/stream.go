package orchestrator

import (
	"context"
	"fmt"

	"github.com/hmaulana/kawanan/pkg/agent"
	"github.com/hmaulana/kawanan/pkg/chat"
)

// EventKind discriminates the events RunStream publishes.
type EventKind string

const (
	// EventDelimStart marks the beginning of one assistant message.
	EventDelimStart EventKind = "delim_start"
	// EventDelta carries one streaming fragment.
	EventDelta EventKind = "delta"
	// EventDelimEnd marks the end of one assistant message.
	EventDelimEnd EventKind = "delim_end"
	// EventResponse is the terminal success event.
	EventResponse EventKind = "response"
	// EventError is the terminal failure event.
	EventError EventKind = "error"
)

// Event is one item on a RunStream channel. Delta is set for EventDelta,
// Response for EventResponse, Err for EventError.
type Event struct {
	Kind     EventKind
	Delta    chat.Delta
	Response *agent.Response
	Err      error
}

// RunStream runs the same loop as Run but streams assistant messages as
// they arrive. The returned channel is closed by the producer after the
// terminal EventResponse or EventError; cancel the context to abandon the
// stream early. The final-message unwrap of restrictive dialects does not
// apply on this path.
func (o *Orchestrator) RunStream(ctx context.Context, start *agent.Agent, messages []chat.Message, params RunParams) <-chan Event {
	ch := make(chan Event)
	go o.runStream(ctx, start, messages, params, ch)
	return ch
}

func (o *Orchestrator) runStream(ctx context.Context, start *agent.Agent, messages []chat.Message, params RunParams, ch chan<- Event) {
	defer close(ch)

	emit := func(ev Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		emit(Event{Kind: EventError, Err: err})
	}

	if start == nil {
		fail(fmt.Errorf("%w: starting agent required", ErrConfig))
		return
	}

	logger := o.runLogger(params.Debug)

	cv := params.ContextVariables.Clone()
	history := cloneHistory(messages)
	initLen := len(history)
	active := start

	for len(history)-initLen < params.MaxTurns {
		req, err := o.buildRequest(active, history, cv, params)
		if err != nil {
			fail(err)
			return
		}

		logger.Debug().
			Str("agent", active.Name).
			Str("model", req.Model).
			Int("history_len", len(history)).
			Msg("opening stream")

		stream, err := o.openStream(ctx, logger, req)
		if err != nil {
			fail(err)
			return
		}

		if !emit(Event{Kind: EventDelimStart}) {
			stream.Close()
			return
		}

		acc := newAccumulator(active.Name)
		for stream.Next() {
			delta := stream.Current()
			if delta.Role == chat.RoleAssistant {
				delta.Sender = active.Name
			}
			if !emit(Event{Kind: EventDelta, Delta: delta}) {
				stream.Close()
				return
			}

			// Role and sender are seeded on the accumulator, not merged.
			delta.Role = ""
			delta.Sender = ""
			acc.add(delta)
		}
		if err := stream.Err(); err != nil {
			stream.Close()
			fail(fmt.Errorf("stream failed: %w", err))
			return
		}
		stream.Close()

		if !emit(Event{Kind: EventDelimEnd}) {
			return
		}

		msg := acc.finish()
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
			fail(err)
			return
		}

		history = append(history, outcome.messages...)
		cv = cv.Merge(outcome.contextVars)
		if outcome.agent != nil {
			logger.Debug().Str("from", active.Name).Str("to", outcome.agent.Name).Msg("agent handoff")
			active = outcome.agent
		}
	}

	emit(Event{Kind: EventResponse, Response: &agent.Response{
		Messages:         history[initLen:],
		Agent:            active,
		ContextVariables: cv,
	}})
}
