package orchestrator

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmaulana/kawanan/pkg/agent"
)

func TestNormalizeResult(t *testing.T) {
	t.Run("result passes through", func(t *testing.T) {
		in := agent.Result{Value: "done", ContextVariables: agent.ContextVars{"k": "v"}}

		out, err := normalizeResult("t", in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("result pointer passes through", func(t *testing.T) {
		out, err := normalizeResult("t", &agent.Result{Value: "done"})
		require.NoError(t, err)
		assert.Equal(t, "done", out.Value)
	})

	t.Run("agent becomes handoff", func(t *testing.T) {
		sales, err := agent.New("sales")
		require.NoError(t, err)

		out, err := normalizeResult("transfer", sales)
		require.NoError(t, err)
		assert.Equal(t, `{"assistant":"sales"}`, out.Value)
		assert.Same(t, sales, out.Agent)
	})

	t.Run("string", func(t *testing.T) {
		out, err := normalizeResult("t", "sunny")
		require.NoError(t, err)
		assert.Equal(t, "sunny", out.Value)
		assert.Nil(t, out.Agent)
	})

	t.Run("nil", func(t *testing.T) {
		out, err := normalizeResult("t", nil)
		require.NoError(t, err)
		assert.Empty(t, out.Value)
	})

	t.Run("stringer", func(t *testing.T) {
		out, err := normalizeResult("t", net.IPv4(127, 0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", out.Value)
	})

	t.Run("scalars stringify", func(t *testing.T) {
		out, err := normalizeResult("t", 42)
		require.NoError(t, err)
		assert.Equal(t, "42", out.Value)

		out, err = normalizeResult("t", 2.5)
		require.NoError(t, err)
		assert.Equal(t, "2.5", out.Value)

		out, err = normalizeResult("t", true)
		require.NoError(t, err)
		assert.Equal(t, "true", out.Value)
	})

	t.Run("composites marshal to JSON", func(t *testing.T) {
		out, err := normalizeResult("t", map[string]int{"count": 3})
		require.NoError(t, err)
		assert.JSONEq(t, `{"count":3}`, out.Value)
	})

	t.Run("unrepresentable values are typed errors", func(t *testing.T) {
		_, err := normalizeResult("broken", func() {})

		var typeErr *ResultTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "broken", typeErr.Tool)
		assert.Contains(t, typeErr.Error(), "broken")
	})

	t.Run("error values are typed errors", func(t *testing.T) {
		_, err := normalizeResult("broken", errors.New("oops"))

		var typeErr *ResultTypeError
		assert.ErrorAs(t, err, &typeErr)
	})
}
