package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopLoggerDiscards(t *testing.T) {
	l := Noop()

	// None of these should panic or produce output
	l.Debug("debug %d", 1)
	l.Info("info %s", "x")
	l.Warn("warn")
	l.Error("error")
}

func TestBufferLoggerCaptures(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("d %d", 1)
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	require.Len(t, l.Messages, 4)
	assert.Equal(t, "debug", l.Messages[0].Level)
	assert.Equal(t, "d 1", l.Messages[0].Message)
	assert.True(t, l.HasLevel("warn"))
	assert.True(t, l.HasLevel("error"))
	assert.False(t, l.HasLevel("fatal"))
}

func TestBufferLoggerClear(t *testing.T) {
	l := NewBufferLogger()
	l.Info("one")
	require.Len(t, l.Messages, 1)

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestEnvLoggerDebugGated(t *testing.T) {
	t.Setenv("MQDASH_DEBUG", "")

	// Debug with MQDASH_DEBUG unset must not panic; output goes to the
	// standard logger which we do not assert on here.
	l := NewEnvLogger("[test]")
	l.Debug("hidden")

	t.Setenv("MQDASH_DEBUG", "1")
	l.Debug("visible")
}

func TestDefault(t *testing.T) {
	assert.NotNil(t, Default())
}
