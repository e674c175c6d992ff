package device

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/bcache/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottled(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryDevice(100, 0)
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1000})
	dev := NewThrottled(mem, rc)

	// The first second of budget is available immediately.
	for i := range 10 {
		require.NoError(t, dev.WriteBlock(ctx, uint32(i), make([]byte, 100)))
	}

	// The bucket is drained; a short deadline cannot be met.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, dev.ReadBlock(short, 0, make([]byte, 100)))

	assert.Equal(t, int64(10), mem.Writes())
	assert.Equal(t, int64(0), mem.Reads())

	require.NoError(t, dev.Close())
	assert.ErrorIs(t, mem.ReadBlock(ctx, 0, make([]byte, 100)), ErrClosed)
}

func TestThrottled_NilController(t *testing.T) {
	mem := NewMemoryDevice(8, 0)
	dev := NewThrottled(mem, nil)

	require.NoError(t, dev.WriteBlock(context.Background(), 3, []byte("12345678")))
	buf := make([]byte, 8)
	require.NoError(t, dev.ReadBlock(context.Background(), 3, buf))
	assert.Equal(t, "12345678", string(buf))
}
