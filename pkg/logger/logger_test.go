package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	_, err := newLogger(Config{Level: "loud"})
	require.Error(t, err)

	_, err = newLogger(Config{Level: "info", Encoding: "xml"})
	require.Error(t, err)
}

func TestNewLoggerDefaults(t *testing.T) {
	l, err := newLogger(Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestInitReplacesGlobal(t *testing.T) {
	previous := Get()
	defer Set(previous)

	require.NoError(t, Init(Config{Level: "error", Encoding: "console"}))
	assert.NotSame(t, previous, Get())
	assert.False(t, Get().Core().Enabled(zapcore.WarnLevel))

	assert.Error(t, Init(Config{Level: "nope"}))
	assert.False(t, Get().Core().Enabled(zapcore.WarnLevel), "failed Init keeps the current logger")
}

func TestWithContextAddsSessionFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	previous := Get()
	Set(zap.New(core))
	defer Set(previous)

	ctx := ContextWith(context.Background(), SessionIDKey, "s-1")
	ctx = ContextWith(ctx, OperationKey, "drop_duplicates")
	ctx = ContextWith(ctx, SourceKey, "")
	WithContext(ctx).Info("applied")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "s-1", fields["session_id"])
	assert.Equal(t, "drop_duplicates", fields["operation"])
	_, hasSource := fields["source"]
	assert.False(t, hasSource)
}
