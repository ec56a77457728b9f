package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmaulana/kawanan/internal/logger"
	"github.com/hmaulana/kawanan/pkg/agent"
	"github.com/hmaulana/kawanan/pkg/chat"
	"github.com/hmaulana/kawanan/pkg/tool"
)

// fakeStep scripts one backend interaction for the fake client.
type fakeStep struct {
	completion *chat.Completion
	err        error
	deltas     []chat.Delta
	streamErr  error
}

type fakeClient struct {
	requests []chat.Request
	steps    []fakeStep
	idx      int
}

func (f *fakeClient) next() fakeStep {
	if f.idx >= len(f.steps) {
		return fakeStep{err: assert.AnError}
	}
	step := f.steps[f.idx]
	f.idx++
	return step
}

func (f *fakeClient) Complete(_ context.Context, req chat.Request) (*chat.Completion, error) {
	f.requests = append(f.requests, req)
	step := f.next()
	return step.completion, step.err
}

func (f *fakeClient) Stream(_ context.Context, req chat.Request) (chat.DeltaStream, error) {
	f.requests = append(f.requests, req)
	step := f.next()
	if step.err != nil {
		return nil, step.err
	}
	return &fakeDeltaStream{deltas: step.deltas, err: step.streamErr}, nil
}

type fakeDeltaStream struct {
	deltas []chat.Delta
	idx    int
	err    error
	closed bool
}

func (s *fakeDeltaStream) Next() bool {
	if s.idx >= len(s.deltas) {
		return false
	}
	s.idx++
	return true
}

func (s *fakeDeltaStream) Current() chat.Delta { return s.deltas[s.idx-1] }

func (s *fakeDeltaStream) Err() error {
	if s.idx >= len(s.deltas) {
		return s.err
	}
	return nil
}

func (s *fakeDeltaStream) Close() error {
	s.closed = true
	return nil
}

func newTestOrchestrator(t *testing.T, mode Mode, client chat.Client) *Orchestrator {
	t.Helper()
	o, err := New(Config{Mode: mode, Client: client, Logger: logger.Nop()})
	require.NoError(t, err)
	return o
}

func assistantReply(content string, calls ...chat.ToolCall) fakeStep {
	return fakeStep{completion: &chat.Completion{Message: chat.Message{
		Role:      chat.RoleAssistant,
		Content:   content,
		ToolCalls: calls,
	}}}
}

func weatherCall(id, args string) chat.ToolCall {
	return chat.ToolCall{
		ID:       id,
		Type:     "function",
		Function: chat.FunctionCall{Name: "get_weather", Arguments: args},
	}
}

func TestNew(t *testing.T) {
	t.Run("empty mode is a config error", func(t *testing.T) {
		_, err := New(Config{})
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("unknown mode is a config error", func(t *testing.T) {
		_, err := New(Config{Mode: "mistral"})
		assert.ErrorIs(t, err, ErrConfig)
		assert.ErrorContains(t, err, "mistral")
	})

	t.Run("gemini requires an api key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("KAWANAN_GEMINI_API_KEY", "")

		_, err := New(Config{Mode: ModeGemini})
		assert.ErrorIs(t, err, ErrConfig)
		assert.ErrorContains(t, err, "GEMINI_API_KEY")
	})

	t.Run("gemini key from environment", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gm-test")

		o, err := New(Config{Mode: ModeGemini})
		require.NoError(t, err)
		assert.Equal(t, ModeGemini, o.Mode())
	})

	t.Run("each recognized mode constructs", func(t *testing.T) {
		for _, mode := range []Mode{ModeOpenAI, ModeOllama, ModeAnthropic} {
			t.Run(string(mode), func(t *testing.T) {
				o, err := New(Config{Mode: mode, APIKey: "test-key"})
				require.NoError(t, err)
				assert.Equal(t, mode, o.Mode())
			})
		}
	})

	t.Run("client override skips credential resolution", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		o, err := New(Config{Mode: ModeGemini, Client: &fakeClient{}})
		require.NoError(t, err)
		assert.Equal(t, ModeGemini, o.Mode())
	})
}

func TestBuildRequest(t *testing.T) {
	o := newTestOrchestrator(t, ModeOpenAI, &fakeClient{})

	t.Run("missing model is a config error", func(t *testing.T) {
		a, err := agent.New("triage")
		require.NoError(t, err)

		_, err = o.buildRequest(a, nil, nil, DefaultRunParams())
		assert.ErrorIs(t, err, ErrConfig)
		assert.ErrorContains(t, err, "triage")
	})

	t.Run("override beats agent model", func(t *testing.T) {
		a, err := agent.New("triage", agent.WithModel("gpt-4o"))
		require.NoError(t, err)

		params := DefaultRunParams()
		params.ModelOverride = "gpt-4o-mini"

		req, err := o.buildRequest(a, nil, nil, params)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", req.Model)
	})

	t.Run("instructions lead the transcript", func(t *testing.T) {
		a, err := agent.New("triage",
			agent.WithModel("gpt-4o"),
			agent.WithInstructionsFunc(func(cv agent.ContextVars) string {
				return "Help " + cv.String("name", "User") + "."
			}),
		)
		require.NoError(t, err)

		history := []chat.Message{{Role: chat.RoleUser, Content: "hi"}}
		req, err := o.buildRequest(a, history, agent.ContextVars{"name": "Ani"}, DefaultRunParams())
		require.NoError(t, err)

		require.Len(t, req.Messages, 2)
		assert.Equal(t, chat.RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "Help Ani.", req.Messages[0].Content)
		assert.Equal(t, "hi", req.Messages[1].Content)
	})

	t.Run("context variables are hidden from schemas", func(t *testing.T) {
		tl, err := tool.New("greet", func(_ context.Context, _ map[string]any) (any, error) { return "", nil },
			tool.WithParameters(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":              map[string]any{"type": "string"},
					tool.ContextVarsKey: map[string]any{"type": "object"},
				},
				"required": []any{"name", tool.ContextVarsKey},
			}),
			tool.WithContextVars(),
		)
		require.NoError(t, err)

		a, err := agent.New("triage", agent.WithModel("gpt-4o"), agent.WithTools(tl))
		require.NoError(t, err)

		req, err := o.buildRequest(a, nil, nil, DefaultRunParams())
		require.NoError(t, err)

		require.Len(t, req.Tools, 1)
		props := req.Tools[0].Parameters["properties"].(map[string]any)
		assert.Contains(t, props, "name")
		assert.NotContains(t, props, tool.ContextVarsKey)
		assert.Equal(t, []any{"name"}, req.Tools[0].Parameters["required"])

		// The registered schema is untouched.
		assert.Contains(t, tl.Parameters["properties"], tool.ContextVarsKey)
	})

	t.Run("parallel flag only rides with tools", func(t *testing.T) {
		bare, err := agent.New("bare", agent.WithModel("gpt-4o"))
		require.NoError(t, err)

		req, err := o.buildRequest(bare, nil, nil, DefaultRunParams())
		require.NoError(t, err)
		assert.Nil(t, req.ParallelToolCalls)

		tl, err := tool.New("greet", func(_ context.Context, _ map[string]any) (any, error) { return "", nil })
		require.NoError(t, err)
		armed, err := agent.New("armed", agent.WithModel("gpt-4o"), agent.WithTools(tl))
		require.NoError(t, err)

		req, err = o.buildRequest(armed, nil, nil, DefaultRunParams())
		require.NoError(t, err)
		require.NotNil(t, req.ParallelToolCalls)
		assert.True(t, *req.ParallelToolCalls)
	})

	t.Run("model config becomes extra body", func(t *testing.T) {
		a, err := agent.New("triage", agent.WithModel("gpt-4o"))
		require.NoError(t, err)

		params := DefaultRunParams()
		params.ModelConfig = map[string]any{"temperature": 0.2}

		req, err := o.buildRequest(a, nil, nil, params)
		require.NoError(t, err)
		assert.Equal(t, 0.2, req.Extra["temperature"])
	})
}
