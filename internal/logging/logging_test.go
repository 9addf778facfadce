package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level       string
		debugOn     bool
		infoEnabled bool
	}{
		{"", false, true},
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
	}

	for _, tc := range cases {
		logger := New(tc.level, "text")
		require.NotNil(t, logger, "level %q", tc.level)
		assert.Equal(t, tc.debugOn, logger.Enabled(context.Background(), slog.LevelDebug), "debug at %q", tc.level)
		assert.Equal(t, tc.infoEnabled, logger.Enabled(context.Background(), slog.LevelInfo), "info at %q", tc.level)
	}
}

func TestNewJSONFormat(t *testing.T) {
	logger := New("info", "json")
	require.NotNil(t, logger)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestID(ctx))

	ctx = WithRequestID(ctx, "req-456")
	assert.Equal(t, "req-456", RequestID(ctx))
}

func TestLoggerFromContext(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, FromContext(ctx), "falls back to the default logger")

	custom := New("debug", "json")
	ctx = WithLogger(ctx, custom)
	assert.Same(t, custom, FromContext(ctx))
}

func TestLAttachesRequestID(t *testing.T) {
	ctx := WithLogger(context.Background(), New("info", "text"))
	require.NotNil(t, L(ctx), "no request id set")

	ctx = WithRequestID(ctx, "req-789")
	require.NotNil(t, L(ctx))
}
