package bcache

import (
	"context"
	"math"
)

// bget returns the entry for (dev, blockno), locked, with its reference
// count raised by one, and the token of the lock acquisition. An entry
// that was just assigned is not valid.
func (c *Cache) bget(ctx context.Context, dev, blockno uint32) (*entry, uint64) {
	target := c.hash(dev, blockno)
	tb := &c.buckets[target]

	// Is the block already cached?
	tb.mu.Lock()
	if i := c.find(tb, dev, blockno); i != nilIndex {
		e := &c.bufs[i]
		e.refcnt++
		tb.mu.Unlock()
		c.hits.Add(1)
		c.metrics.RecordHit()
		return e, e.lock.Acquire()
	}
	tb.mu.Unlock()

	c.misses.Add(1)
	c.metrics.RecordMiss()

	vi := c.evict(ctx)
	victim := &c.bufs[vi]
	if c.afterEvict != nil {
		c.afterEvict()
	}

	// Another caller may have cached the block while no bucket lock was held.
	tb.mu.Lock()
	if i := c.find(tb, dev, blockno); i != nilIndex {
		e := &c.bufs[i]
		e.refcnt++
		victim.assigned = false
		victim.valid.Store(false)
		victim.idle = 0
		c.pushFront(tb, vi)
		tb.mu.Unlock()
		return e, e.lock.Acquire()
	}

	if victim.assigned {
		c.evictions.Add(1)
		c.metrics.RecordEviction()
		c.logger.LogEviction(ctx, victim.dev, victim.blockno, dev, blockno)
	}
	victim.dev = dev
	victim.blockno = blockno
	victim.assigned = true
	victim.valid.Store(false)
	victim.refcnt = 1
	c.pushFront(tb, vi)
	tb.mu.Unlock()

	return victim, victim.lock.Acquire()
}

// evict unlinks and returns the index of the unreferenced buffer with the
// smallest idle stamp across all buckets. Ties keep the first buffer found,
// i.e. the one in the lowest bucket and nearest its head.
//
// Buckets are locked in ascending order and at most two are held at once:
// the bucket holding the best buffer so far and the one being scanned. The
// retained bucket always has the lower index, so concurrent scans agree on
// the lock order.
func (c *Cache) evict(ctx context.Context) int32 {
	best, bestPrev := nilIndex, nilIndex
	bestBucket := -1
	bestIdle := uint64(math.MaxUint64)

	for bi := range c.buckets {
		bk := &c.buckets[bi]
		bk.mu.Lock()

		found := false
		prev := nilIndex
		for i := bk.head; i != nilIndex; prev, i = i, c.bufs[i].next {
			b := &c.bufs[i]
			if b.refcnt == 0 && b.idle < bestIdle {
				best, bestPrev, bestIdle = i, prev, b.idle
				found = true
			}
		}

		if !found {
			bk.mu.Unlock()
			continue
		}
		if bestBucket >= 0 {
			c.buckets[bestBucket].mu.Unlock()
		}
		bestBucket = bi
	}

	if bestBucket < 0 {
		c.fatal(ctx, "bget", ErrNoBuffers)
	}

	bk := &c.buckets[bestBucket]
	c.unlink(bk, bestPrev, best)
	bk.mu.Unlock()

	return best
}
