package bcache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/bcache/device"
	"github.com/hupe1980/bcache/internal/sleeplock"
	"github.com/hupe1980/bcache/resource"
)

// Cache is a fixed pool of block buffers shared by concurrent callers.
type Cache struct {
	bufs      []entry
	buckets   []bucket
	blockSize int
	devices   map[uint32]device.Device

	// ticks is the logical clock stamped on buffers as they become unreferenced.
	ticks atomic.Uint64

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	reads     atomic.Int64
	writes    atomic.Int64

	metrics  MetricsCollector
	logger   *Logger
	rc       *resource.Controller
	reserved int64

	closeOnce sync.Once
	closeErr  error

	// afterEvict, when set, runs in bget between unlinking a victim and
	// re-scanning the target bucket.
	afterEvict func()
}

// New creates a Cache. Every buffer starts out unassigned in the first bucket.
func New(optFns ...Option) (*Cache, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.buffers < 1 || opts.buffers > math.MaxInt32 {
		return nil, fmt.Errorf("%w: buffers must be in [1, %d], got %d", ErrInvalidConfig, math.MaxInt32, opts.buffers)
	}
	if opts.buckets < 1 {
		return nil, fmt.Errorf("%w: buckets must be positive, got %d", ErrInvalidConfig, opts.buckets)
	}
	if opts.blockSize < 1 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidConfig, opts.blockSize)
	}
	for id, dev := range opts.devices {
		if dev == nil {
			return nil, fmt.Errorf("%w: device %d is nil", ErrInvalidConfig, id)
		}
	}

	reserved := int64(opts.buffers) * int64(opts.blockSize)
	if err := opts.rc.AcquireMemory(reserved); err != nil {
		return nil, fmt.Errorf("reserve %d bytes for buffer pool: %w", reserved, err)
	}

	c := &Cache{
		bufs:      make([]entry, opts.buffers),
		buckets:   make([]bucket, opts.buckets),
		blockSize: opts.blockSize,
		devices:   opts.devices,
		metrics:   opts.metricsCollector,
		logger:    opts.logger,
		rc:        opts.rc,
		reserved:  reserved,
	}

	for i := range c.buckets {
		c.buckets[i].head = nilIndex
	}

	// One backing array keeps the pool a single allocation.
	data := make([]byte, opts.buffers*opts.blockSize)
	for i := range c.bufs {
		b := &c.bufs[i]
		b.data = data[i*opts.blockSize : (i+1)*opts.blockSize : (i+1)*opts.blockSize]
		b.lock = sleeplock.New(fmt.Sprintf("buffer %d", i))
		b.next = nilIndex
		c.pushFront(&c.buckets[0], int32(i))
	}

	c.logger.LogInit(context.Background(), opts.buffers, opts.buckets, opts.blockSize, len(opts.devices))

	return c, nil
}

// BlockSize returns the size of every buffer in bytes.
func (c *Cache) BlockSize() int { return c.blockSize }

// Read returns a locked buffer holding the contents of block blockno of
// device dev, reading it from the device only if it is not already cached.
//
// ctx carries values to the device, but its cancellation does not reach
// the transfer: once Read has locked the buffer it runs to completion.
// Waiting for the buffer lock cannot be cancelled either.
func (c *Cache) Read(ctx context.Context, dev, blockno uint32) *Buf {
	d := c.device(ctx, "read", dev)

	e, token := c.bget(ctx, dev, blockno)
	b := &Buf{e: e, token: token, dev: dev, blockno: blockno}
	if !e.valid.Load() {
		c.transfer(context.WithoutCancel(ctx), d, b, false)
		e.valid.Store(true)
	}
	return b
}

// Write writes the contents of b through to its device. b must still hold
// the lock it was returned with. Like Read, the transfer ignores the
// cancellation of ctx.
func (c *Cache) Write(ctx context.Context, b *Buf) {
	if !b.e.lock.HeldBy(b.token) {
		c.fatal(ctx, "write", ErrNotLocked)
	}
	d := c.device(ctx, "write", b.dev)
	c.transfer(context.WithoutCancel(ctx), d, b, true)
}

// Release unlocks b and drops the caller's reference. b must still hold
// the lock it was returned with; releasing a handle twice is fatal.
// The contents stay cached for later callers.
func (c *Cache) Release(b *Buf) {
	if !b.e.lock.Release(b.token) {
		c.fatal(context.Background(), "release", ErrNotLocked)
	}

	e := b.e
	bk := &c.buckets[c.hash(b.dev, b.blockno)]
	bk.mu.Lock()
	e.refcnt--
	if e.refcnt == 0 {
		e.idle = c.ticks.Add(1)
	}
	bk.mu.Unlock()
}

// Pin takes an extra reference on b so it cannot be evicted, without
// locking it. The caller must hold a reference while pinning.
func (c *Cache) Pin(b *Buf) {
	bk := &c.buckets[c.hash(b.dev, b.blockno)]
	bk.mu.Lock()
	b.e.refcnt++
	bk.mu.Unlock()
}

// Unpin drops a reference taken with Pin. The handle may already be
// released.
func (c *Cache) Unpin(b *Buf) {
	e := b.e
	bk := &c.buckets[c.hash(b.dev, b.blockno)]
	bk.mu.Lock()
	if e.refcnt == 0 {
		bk.mu.Unlock()
		c.fatal(context.Background(), "unpin", ErrNegativeRef)
	}
	e.refcnt--
	if e.refcnt == 0 {
		e.idle = c.ticks.Add(1)
	}
	bk.mu.Unlock()
}

// Close closes every registered device and returns the pool's memory to
// the resource controller. Buffers must not be used after Close.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		for id, d := range c.devices {
			if err := d.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close device %d: %w", id, err))
			}
		}
		c.rc.ReleaseMemory(c.reserved)
		c.closeErr = errors.Join(errs...)
		c.logger.LogClose(context.Background(), c.closeErr)
	})
	return c.closeErr
}

func (c *Cache) device(ctx context.Context, op string, dev uint32) device.Device {
	d, ok := c.devices[dev]
	if !ok {
		c.fatal(ctx, op, fmt.Errorf("%w: %d", ErrUnknownDevice, dev))
	}
	return d
}

// transfer moves one block between b and its device. Failures are fatal.
func (c *Cache) transfer(ctx context.Context, d device.Device, b *Buf, write bool) {
	start := time.Now()

	var err error
	if write {
		c.writes.Add(1)
		err = d.WriteBlock(ctx, b.blockno, b.e.data)
	} else {
		c.reads.Add(1)
		err = d.ReadBlock(ctx, b.blockno, b.e.data)
	}

	elapsed := time.Since(start)
	c.metrics.RecordTransfer(write, elapsed, err)
	c.logger.LogTransfer(ctx, write, b.dev, b.blockno, elapsed, err)

	if err != nil {
		op := "read"
		if write {
			op = "write"
		}
		c.fatal(ctx, op, fmt.Errorf("dev %d block %d: %w", b.dev, b.blockno, err))
	}
}

// fatal logs err and panics with a *FatalError.
func (c *Cache) fatal(ctx context.Context, op string, err error) {
	c.logger.LogFatal(ctx, op, err)
	panic(&FatalError{Op: op, Err: err})
}
