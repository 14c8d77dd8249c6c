package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevels(t *testing.T) {
	l := New(LevelWarn, true)
	assert.False(t, l.Enabled(LevelInfo))
	assert.True(t, l.Enabled(LevelError))

	child := l.With(String("component", "test"))
	l.SetLevel(LevelDebug)
	assert.True(t, child.Enabled(LevelDebug))

	// The first logger built is the package logger
	assert.NotNil(t, Provide())
}

func TestNopBeforeNew(t *testing.T) {
	assert.False(t, nop.Enabled(LevelError))
	nop.Info("discarded", Int("n", 1))
}
