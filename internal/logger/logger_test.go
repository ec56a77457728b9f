package logger

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		l, err := New(DefaultConfig())
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, zerolog.InfoLevel, l.Zerolog().GetLevel())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		l, err := New(Config{Level: "loud", Console: true})
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, zerolog.InfoLevel, l.Zerolog().GetLevel())
	})

	t.Run("debug level", func(t *testing.T) {
		l, err := New(Config{Level: "debug", Console: true})
		require.NoError(t, err)
		defer l.Close()

		assert.Equal(t, zerolog.DebugLevel, l.Zerolog().GetLevel())
	})

	t.Run("file output creates directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "engine.log")

		l, err := New(Config{Level: "info", File: path})
		require.NoError(t, err)

		zl := l.Zerolog()
		zl.Info().Str("event", "test").Msg("written")
		require.NoError(t, l.Close())

		assert.FileExists(t, path)
	})
}

func TestNop(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, Nop().GetLevel())
}
