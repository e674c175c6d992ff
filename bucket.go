package bcache

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// bucket is one hash chain of the buffer table. mu guards the chain links
// and the reference count, idle stamp and key of every buffer on it.
type bucket struct {
	mu   sync.Mutex
	head int32
	_    cpu.CacheLinePad
}

func (c *Cache) hash(dev, blockno uint32) int {
	return int((uint64(dev) + uint64(blockno)) % uint64(len(c.buckets)))
}

// find returns the index of the buffer assigned to (dev, blockno) in bk, or nilIndex.
// Requires bk.mu.
func (c *Cache) find(bk *bucket, dev, blockno uint32) int32 {
	for i := bk.head; i != nilIndex; i = c.bufs[i].next {
		b := &c.bufs[i]
		if b.assigned && b.dev == dev && b.blockno == blockno {
			return i
		}
	}
	return nilIndex
}

// pushFront links buffer i at the head of bk. Requires bk.mu.
func (c *Cache) pushFront(bk *bucket, i int32) {
	c.bufs[i].next = bk.head
	bk.head = i
}

// unlink removes buffer i, whose predecessor is prev, from bk. Requires bk.mu.
func (c *Cache) unlink(bk *bucket, prev, i int32) {
	if prev == nilIndex {
		bk.head = c.bufs[i].next
	} else {
		c.bufs[prev].next = c.bufs[i].next
	}
	c.bufs[i].next = nilIndex
}
