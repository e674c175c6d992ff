package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDevice(t *testing.T) {
	ctx := context.Background()
	dev := NewMemoryDevice(8, 4)

	buf := make([]byte, 8)
	buf[0] = 0xAA
	require.NoError(t, dev.ReadBlock(ctx, 1, buf))
	assert.Equal(t, make([]byte, 8), buf, "unwritten blocks read as zeroes")

	require.NoError(t, dev.WriteBlock(ctx, 1, []byte("block-01")))
	buf[0] = 'X' // caller buffers are not retained
	require.NoError(t, dev.ReadBlock(ctx, 1, buf))
	assert.Equal(t, "block-01", string(buf))
	assert.Equal(t, "block-01", string(dev.Block(1)))

	assert.Equal(t, int64(2), dev.Reads())
	assert.Equal(t, int64(1), dev.Writes())
}

func TestMemoryDevice_Validation(t *testing.T) {
	ctx := context.Background()
	dev := NewMemoryDevice(8, 4)

	assert.ErrorIs(t, dev.ReadBlock(ctx, 4, make([]byte, 8)), ErrOutOfRange)
	assert.ErrorIs(t, dev.WriteBlock(ctx, 0, make([]byte, 7)), ErrBlockSize)

	unbounded := NewMemoryDevice(8, 0)
	assert.NoError(t, unbounded.WriteBlock(ctx, 1<<30, make([]byte, 8)))

	require.NoError(t, dev.Close())
	assert.ErrorIs(t, dev.ReadBlock(ctx, 0, make([]byte, 8)), ErrClosed)
	assert.ErrorIs(t, dev.WriteBlock(ctx, 0, make([]byte, 8)), ErrClosed)
}

func TestMemoryDevice_Latency(t *testing.T) {
	dev := NewMemoryDevice(8, 0)
	dev.SetLatency(30 * time.Millisecond)

	start := time.Now()
	require.NoError(t, dev.ReadBlock(context.Background(), 0, make([]byte, 8)))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, dev.WriteBlock(ctx, 0, make([]byte, 8)), context.Canceled)
}
