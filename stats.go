package bcache

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Stats is a point-in-time report of the cache.
//
// Buckets are visited one at a time, so the buffer counts of a busy cache
// may not add up to Buffers.
type Stats struct {
	Buffers   int
	Buckets   int
	BlockSize int

	// Free buffers have no references and may be evicted.
	Free int
	// Held buffers are locked or pinned by at least one caller.
	Held int
	// Valid buffers hold the device contents of their block.
	Valid int

	Hits      int64
	Misses    int64
	Evictions int64
	Reads     int64
	Writes    int64
}

// Stats returns a report of the cache.
func (c *Cache) Stats() Stats {
	s := Stats{
		Buffers:   len(c.bufs),
		Buckets:   len(c.buckets),
		BlockSize: c.blockSize,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Reads:     c.reads.Load(),
		Writes:    c.writes.Load(),
	}

	for bi := range c.buckets {
		bk := &c.buckets[bi]
		bk.mu.Lock()
		for i := bk.head; i != nilIndex; i = c.bufs[i].next {
			b := &c.bufs[i]
			if b.refcnt == 0 {
				s.Free++
			} else {
				s.Held++
			}
			if b.assigned && b.valid.Load() {
				s.Valid++
			}
		}
		bk.mu.Unlock()
	}
	return s
}

// Resident returns the block numbers of dev whose contents are cached.
func (c *Cache) Resident(dev uint32) *roaring.Bitmap {
	bm := roaring.New()
	for bi := range c.buckets {
		bk := &c.buckets[bi]
		bk.mu.Lock()
		for i := bk.head; i != nilIndex; i = c.bufs[i].next {
			b := &c.bufs[i]
			if b.assigned && b.dev == dev && b.valid.Load() {
				bm.Add(b.blockno)
			}
		}
		bk.mu.Unlock()
	}
	return bm
}

// Invalidate marks every unreferenced cached block of dev as stale, so the
// next Read of it goes to the device. Locked or pinned buffers are skipped.
// It returns the number of buffers invalidated.
func (c *Cache) Invalidate(dev uint32) int {
	n := 0
	for bi := range c.buckets {
		bk := &c.buckets[bi]
		bk.mu.Lock()
		for i := bk.head; i != nilIndex; i = c.bufs[i].next {
			b := &c.bufs[i]
			if b.assigned && b.dev == dev && b.refcnt == 0 && b.valid.Load() {
				b.valid.Store(false)
				n++
			}
		}
		bk.mu.Unlock()
	}
	c.logger.WithDevice(dev).Debug("device invalidated", "buffers", n)
	return n
}
