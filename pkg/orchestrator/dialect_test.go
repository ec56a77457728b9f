package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hmaulana/kawanan/pkg/chat"
)

func TestInlineDialectPostprocess(t *testing.T) {
	d := inlineDialect{}

	t.Run("unwraps and trims wrapper content", func(t *testing.T) {
		msg := d.postprocessFinalMessage(chat.Message{
			Role:    chat.RoleAssistant,
			Content: `{"role":"assistant","content":"  hello  "}`,
		})
		assert.Equal(t, "hello", msg.Content)
	})

	t.Run("non-wrapper content passes through", func(t *testing.T) {
		msg := d.postprocessFinalMessage(chat.Message{
			Role:    chat.RoleAssistant,
			Content: "Tool get_weather returned: sunny.",
		})
		assert.Equal(t, "Tool get_weather returned: sunny.", msg.Content)
	})
}

func TestToolRoleDialectPassthrough(t *testing.T) {
	d := toolRoleDialect{}

	msg := chat.Message{Role: chat.RoleAssistant, Content: "hi", Sender: "triage"}
	assert.Equal(t, msg, d.formatAssistantMessage(msg))
	assert.Equal(t, msg, d.postprocessFinalMessage(msg))
	assert.True(t, d.retryWithoutTools())
}
