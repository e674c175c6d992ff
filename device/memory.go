package device

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryDevice is a sparse in-memory Device.
// Blocks that were never written read as zeroes.
// Thread-safe for concurrent reads and writes.
type MemoryDevice struct {
	blockSize int
	numBlocks uint32

	mu      sync.RWMutex
	blocks  map[uint32][]byte
	latency time.Duration
	closed  bool

	reads  atomic.Int64
	writes atomic.Int64
}

// NewMemoryDevice creates an in-memory device of numBlocks blocks.
// numBlocks of 0 creates an unbounded device.
func NewMemoryDevice(blockSize int, numBlocks uint32) *MemoryDevice {
	return &MemoryDevice{
		blockSize: blockSize,
		numBlocks: numBlocks,
		blocks:    make(map[uint32][]byte),
	}
}

// SetLatency makes every transfer sleep for d before completing.
func (m *MemoryDevice) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// ReadBlock implements Device.
func (m *MemoryDevice) ReadBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := CheckBlock(blockno, p, m.blockSize, m.numBlocks); err != nil {
		return err
	}
	m.reads.Add(1)
	if err := m.wait(ctx); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	if data, ok := m.blocks[blockno]; ok {
		copy(p, data)
	} else {
		clear(p)
	}
	return nil
}

// WriteBlock implements Device.
func (m *MemoryDevice) WriteBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := CheckBlock(blockno, p, m.blockSize, m.numBlocks); err != nil {
		return err
	}
	m.writes.Add(1)
	if err := m.wait(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	// Copy to prevent external mutation
	data := make([]byte, len(p))
	copy(data, p)
	m.blocks[blockno] = data
	return nil
}

// Close implements Device.
func (m *MemoryDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Block returns a copy of the stored block without counting a transfer.
func (m *MemoryDevice) Block(blockno uint32) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]byte, m.blockSize)
	copy(out, m.blocks[blockno])
	return out
}

// Reads returns the number of ReadBlock calls.
func (m *MemoryDevice) Reads() int64 {
	return m.reads.Load()
}

// Writes returns the number of WriteBlock calls.
func (m *MemoryDevice) Writes() int64 {
	return m.writes.Load()
}

func (m *MemoryDevice) wait(ctx context.Context) error {
	m.mu.RLock()
	d := m.latency
	m.mu.RUnlock()

	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
