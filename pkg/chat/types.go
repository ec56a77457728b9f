package chat

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// FunctionCall is the name/arguments pair inside a tool call. Arguments is
// the raw JSON string as the provider sent it.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a completed tool invocation request from the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is one turn of conversation history.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	Sender     string     `json:"sender,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		copy(out.ToolCalls, m.ToolCalls)
	}
	return out
}

// DeltaToolCall is a partial tool call inside a streaming fragment. Index
// identifies which call the fragment belongs to; ID, type, name and arguments
// arrive split across fragments.
type DeltaToolCall struct {
	Index    int          `json:"index"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// Delta is one streaming fragment of an assistant message.
type Delta struct {
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	ToolCalls []DeltaToolCall `json:"tool_calls,omitempty"`
}

// ToolSchema describes one callable function advertised to the model.
// Parameters is a JSON-schema object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single chat-completion call.
type Request struct {
	Model    string
	Messages []Message
	Tools    []ToolSchema

	// ToolChoice is "auto", "none" or "required"; empty means provider
	// default.
	ToolChoice string

	// ParallelToolCalls is only transmitted when non-nil.
	ParallelToolCalls *bool

	// Extra is merged into the request body as-is, overriding fields the
	// client would otherwise set.
	Extra map[string]any
}

// Completion is the non-streaming result of a Request.
type Completion struct {
	Message Message
}

// DeltaStream iterates streaming fragments. Next reports whether a fragment
// is available; after it returns false, Err holds the terminal error if the
// stream failed. Close releases the underlying connection.
type DeltaStream interface {
	Next() bool
	Current() Delta
	Err() error
	Close() error
}

// Client is the capability the orchestrator uses to reach a backend.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Stream(ctx context.Context, req Request) (DeltaStream, error)
}
