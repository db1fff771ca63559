package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHelpersWriteToGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { Init("info") })

	Debug("debug message", zap.Int("n", 1))
	Info("info message")
	Warn("warn message")
	Error("error message", zap.String("phase", "blink"))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "debug message", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "blink", entries[3].ContextMap()["phase"])
}

func TestWithAttachesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { Init("info") })

	With(zap.String("session", "abc")).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["session"])
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	Init("nonsense")
	t.Cleanup(func() { Init("info") })

	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, L().Core().Enabled(zapcore.InfoLevel))
}
