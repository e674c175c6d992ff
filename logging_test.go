package bcache

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, _ := newTestCache(t, 1, WithLogger(logger))
	ctx := context.Background()

	b := c.Read(ctx, 1, 3)
	c.Write(ctx, b)
	c.Release(b)
	c.Release(c.Read(ctx, 1, 4))

	expectFatal(t, ErrNotLocked, func() { c.Release(b) })
	require.NoError(t, c.Close())

	logOutput := buf.String()
	require.Contains(t, logOutput, "buffer cache initialized")
	require.Contains(t, logOutput, `"buffers":1`)
	require.Contains(t, logOutput, "block read completed")
	require.Contains(t, logOutput, "block write completed")
	require.Contains(t, logOutput, "buffer evicted")
	require.Contains(t, logOutput, `"old_blockno":3`)
	require.Contains(t, logOutput, "fatal buffer cache error")
	require.Contains(t, logOutput, "buffer cache closed")
}

func TestNoopLogger(t *testing.T) {
	logger := NoopLogger()
	require.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.WithBlock(1, 2).LogFatal(context.Background(), "read", ErrNoBuffers)
}
