package zaplog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := Wrap(zap.New(core))

	log.Debug("hidden", "requestId", "r1")
	log.Info("processed", "requestId", "r1", "intent", "stand_status", "latencyMs", 12)
	log.Warn("fallback", "requestId", "r1")
	log.Error("failed", "error", "boom")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "processed", entries[0].Message)
	assert.Equal(t, map[string]any{"requestId": "r1", "intent": "stand_status", "latencyMs": int64(12)}, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := Wrap(zap.New(core)).With("requestId", "r2")

	log.Debug("stage", "name", "extract")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, map[string]any{"requestId": "r2", "name": "extract"}, logs.All()[0].ContextMap())
}

func TestNew(t *testing.T) {
	log, err := New(true)
	require.NoError(t, err)
	assert.NotNil(t, log)
}
