package testutil

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/bcache/device"
)

// ErrInjected is returned by a FailingDevice.
var ErrInjected = errors.New("injected device failure")

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Block returns a uniformly distributed block number in [0, n).
func (r *RNG) Block(n uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint32(r.rand.Int63n(int64(n)))
}

// FillBlock fills dst with random bytes.
func (r *RNG) FillBlock(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.rand.Read(dst)
}

// ZipfBlock returns a Zipfian-distributed block number in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
// s=1.0 gives standard Zipf, s=1.5 gives a heavy hot set.
func (r *RNG) ZipfBlock(n uint32, s float64) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint32(r.zipfLocked(int(n), s))
}

// ZipfBlocks generates count block numbers in [0, n) with Zipfian distribution.
func (r *RNG) ZipfBlocks(count int, n uint32, s float64) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	blocks := make([]uint32, count)
	for i := range count {
		blocks[i] = uint32(r.zipfLocked(int(n), s))
	}
	return blocks
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	// Compute normalization constant (harmonic number with exponent s)
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Sample from uniform and use inverse transform
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// RecordingDevice counts the transfers of every block of the device it wraps.
type RecordingDevice struct {
	device.Device

	mu     sync.Mutex
	reads  map[uint32]int
	writes map[uint32]int
}

// NewRecordingDevice wraps dev.
func NewRecordingDevice(dev device.Device) *RecordingDevice {
	return &RecordingDevice{
		Device: dev,
		reads:  make(map[uint32]int),
		writes: make(map[uint32]int),
	}
}

// ReadBlock implements device.Device.
func (d *RecordingDevice) ReadBlock(ctx context.Context, blockno uint32, p []byte) error {
	d.mu.Lock()
	d.reads[blockno]++
	d.mu.Unlock()
	return d.Device.ReadBlock(ctx, blockno, p)
}

// WriteBlock implements device.Device.
func (d *RecordingDevice) WriteBlock(ctx context.Context, blockno uint32, p []byte) error {
	d.mu.Lock()
	d.writes[blockno]++
	d.mu.Unlock()
	return d.Device.WriteBlock(ctx, blockno, p)
}

// Reads returns the number of reads of blockno.
func (d *RecordingDevice) Reads(blockno uint32) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads[blockno]
}

// Writes returns the number of writes of blockno.
func (d *RecordingDevice) Writes(blockno uint32) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes[blockno]
}

// TotalReads returns the number of reads of all blocks.
func (d *RecordingDevice) TotalReads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.reads {
		n += c
	}
	return n
}

// FailingDevice passes transfers through until FailAfter transfers have
// completed, then fails every transfer with ErrInjected.
type FailingDevice struct {
	device.Device

	mu        sync.Mutex
	FailAfter int
	done      int
}

// ReadBlock implements device.Device.
func (d *FailingDevice) ReadBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := d.admit(); err != nil {
		return err
	}
	return d.Device.ReadBlock(ctx, blockno, p)
}

// WriteBlock implements device.Device.
func (d *FailingDevice) WriteBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := d.admit(); err != nil {
		return err
	}
	return d.Device.WriteBlock(ctx, blockno, p)
}

func (d *FailingDevice) admit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done >= d.FailAfter {
		return ErrInjected
	}
	d.done++
	return nil
}
