package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hmaulana/kawanan/pkg/chat"
)

// dialect captures how a backend family formats tool traffic in history and
// how invocation failures are handled. Two families exist: tool-role
// (openai, ollama, anthropic) and inline-assistant (gemini).
type dialect interface {
	// retryWithoutTools reports whether a rejected request is retried once
	// with tool fields stripped before becoming fatal.
	retryWithoutTools() bool

	// formatAssistantMessage converts a completed assistant message into
	// its history representation.
	formatAssistantMessage(msg chat.Message) chat.Message

	// formatToolResult builds the history message for one executed call.
	formatToolResult(call chat.ToolCall, args map[string]any, value string) chat.Message

	// formatMissingTool builds the in-history error message for a call to
	// an unregistered tool.
	formatMissingTool(call chat.ToolCall) chat.Message

	// postprocessFinalMessage adjusts the run's final message on the
	// blocking path.
	postprocessFinalMessage(msg chat.Message) chat.Message
}

// toolRoleDialect speaks the conventional protocol: assistant messages are
// stored verbatim and tool results ride in dedicated tool-role messages.
type toolRoleDialect struct{}

func (toolRoleDialect) retryWithoutTools() bool { return true }

func (toolRoleDialect) formatAssistantMessage(msg chat.Message) chat.Message {
	return msg
}

func (toolRoleDialect) formatToolResult(call chat.ToolCall, _ map[string]any, value string) chat.Message {
	return chat.Message{
		Role:       chat.RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Content:    value,
	}
}

func (toolRoleDialect) formatMissingTool(call chat.ToolCall) chat.Message {
	return chat.Message{
		Role:       chat.RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Content:    fmt.Sprintf("Error: Tool %s not found.", call.Function.Name),
	}
}

func (toolRoleDialect) postprocessFinalMessage(msg chat.Message) chat.Message {
	return msg
}

// inlineDialect serves backends without a tool-result role. Assistant turns
// are stored as JSON-encoded wrappers and tool results are narrated in
// assistant messages; rejections are fatal without retry.
type inlineDialect struct{}

func (inlineDialect) retryWithoutTools() bool { return false }

func (inlineDialect) formatAssistantMessage(msg chat.Message) chat.Message {
	payload, err := json.Marshal(msg)
	if err != nil {
		return msg
	}
	return chat.Message{
		Role:    msg.Role,
		Content: string(payload),
	}
}

func (inlineDialect) formatToolResult(call chat.ToolCall, args map[string]any, value string) chat.Message {
	return chat.Message{
		Role:    chat.RoleAssistant,
		Content: fmt.Sprintf("Tool %s returned: %s. \nTool_call args: %v", call.Function.Name, value, args),
	}
}

func (inlineDialect) formatMissingTool(call chat.ToolCall) chat.Message {
	return chat.Message{
		Role:    chat.RoleAssistant,
		Content: fmt.Sprintf("Error: Tool %s not found.", call.Function.Name),
	}
}

// postprocessFinalMessage unwraps the JSON wrapper formatAssistantMessage
// stored, trimming surrounding whitespace. Messages that do not parse as a
// wrapper pass through unchanged.
func (inlineDialect) postprocessFinalMessage(msg chat.Message) chat.Message {
	var wrapper struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(msg.Content), &wrapper); err != nil {
		return msg
	}
	msg.Content = strings.TrimSpace(wrapper.Content)
	return msg
}
