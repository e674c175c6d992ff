package testutil

import (
	"context"
	"testing"

	"github.com/hupe1980/bcache/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Block(1 << 20)
	rng.Reset()
	assert.Equal(t, a, rng.Block(1<<20))
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestZipfBlocks(t *testing.T) {
	rng := NewRNG(4711)

	blocks := rng.ZipfBlocks(2000, 100, 1.5)
	require.Len(t, blocks, 2000)

	hot := 0
	for _, b := range blocks {
		assert.Less(t, b, uint32(100))
		if b < 10 {
			hot++
		}
	}
	// The first tenth of the blocks draws most of the traffic.
	assert.Greater(t, hot, 1000)

	assert.Equal(t, uint32(0), rng.ZipfBlock(1, 1.5))
}

func TestRecordingDevice(t *testing.T) {
	ctx := context.Background()
	dev := NewRecordingDevice(device.NewMemoryDevice(16, 8))

	buf := make([]byte, 16)
	NewRNG(1).FillBlock(buf)
	require.NoError(t, dev.WriteBlock(ctx, 3, buf))
	require.NoError(t, dev.ReadBlock(ctx, 3, buf))
	require.NoError(t, dev.ReadBlock(ctx, 4, buf))

	assert.Equal(t, 1, dev.Reads(3))
	assert.Equal(t, 1, dev.Writes(3))
	assert.Equal(t, 0, dev.Writes(4))
	assert.Equal(t, 2, dev.TotalReads())
}

func TestFailingDevice(t *testing.T) {
	ctx := context.Background()
	dev := &FailingDevice{Device: device.NewMemoryDevice(16, 8), FailAfter: 1}

	buf := make([]byte, 16)
	require.NoError(t, dev.ReadBlock(ctx, 0, buf))
	assert.ErrorIs(t, dev.WriteBlock(ctx, 0, buf), ErrInjected)
	assert.ErrorIs(t, dev.ReadBlock(ctx, 0, buf), ErrInjected)
}
