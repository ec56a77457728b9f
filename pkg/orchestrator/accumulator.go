package orchestrator

import (
	"sort"

	"github.com/hmaulana/kawanan/pkg/chat"
)

// accumulator reassembles a streamed assistant message from Delta fragments.
// String fields concatenate; scalars are set-if-absent; tool-call fragments
// are keyed by index and initialized empty on first sight.
type accumulator struct {
	message chat.Message
	calls   map[int]*chat.ToolCall
}

func newAccumulator(sender string) *accumulator {
	return &accumulator{
		message: chat.Message{Role: chat.RoleAssistant, Sender: sender},
		calls:   make(map[int]*chat.ToolCall),
	}
}

func (a *accumulator) add(d chat.Delta) {
	if a.message.Role == "" && d.Role != "" {
		a.message.Role = d.Role
	}
	if a.message.Sender == "" && d.Sender != "" {
		a.message.Sender = d.Sender
	}
	a.message.Content += d.Content

	for _, tc := range d.ToolCalls {
		cur, ok := a.calls[tc.Index]
		if !ok {
			cur = &chat.ToolCall{}
			a.calls[tc.Index] = cur
		}
		cur.ID += tc.ID
		cur.Type += tc.Type
		cur.Function.Name += tc.Function.Name
		cur.Function.Arguments += tc.Function.Arguments
	}
}

// finish returns the assembled message. Tool calls flush in index order;
// when no fragments arrived the slice stays nil, which downstream reads as
// "no tool calls".
func (a *accumulator) finish() chat.Message {
	msg := a.message

	if len(a.calls) > 0 {
		indices := make([]int, 0, len(a.calls))
		for idx := range a.calls {
			indices = append(indices, idx)
		}
		sort.Ints(indices)

		msg.ToolCalls = make([]chat.ToolCall, 0, len(indices))
		for _, idx := range indices {
			msg.ToolCalls = append(msg.ToolCalls, *a.calls[idx])
		}
	}

	return msg
}
