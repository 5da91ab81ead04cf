package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEnsureRequestIDGeneratesID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	require.NotEmpty(t, id)

	got, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)
}

func TestEnsureRequestIDKeepsExisting(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	ctx, id := EnsureRequestID(ctx)
	require.Equal(t, "req-123", id)

	got, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "req-123", got)
}

func TestWithRequestIDEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	_, ok := RequestIDFromContext(ctx)
	require.False(t, ok)
}

func TestLoggerWithRequest(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	LoggerWithRequest(WithRequestID(context.Background(), "req-9"), base).Info("hello")
	LoggerWithRequest(context.Background(), base).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "req-9", entries[0].ContextMap()[FieldRequestID])
	require.NotContains(t, entries[1].ContextMap(), FieldRequestID)
}
