package bcache

import (
	"sync/atomic"

	"github.com/hupe1980/bcache/internal/sleeplock"
)

// nilIndex terminates a bucket list.
const nilIndex int32 = -1

// entry is one buffer of the pool.
type entry struct {
	// Guarded by the bucket lock of the bucket holding the entry.
	dev      uint32
	blockno  uint32
	assigned bool
	refcnt   int
	idle     uint64
	next     int32

	// Guarded by lock.
	valid atomic.Bool
	data  []byte

	lock *sleeplock.Lock
}

// Buf is a caller's handle on one locked buffer.
//
// Every Read returns a new handle that carries the lock acquisition it was
// granted. Once released, the handle no longer owns the buffer: passing it
// to Write or Release again is fatal even if another caller has since
// locked the same buffer. Data must only be used while the handle holds
// the lock.
type Buf struct {
	e       *entry
	token   uint64
	dev     uint32
	blockno uint32
}

// Data returns the block contents. The slice is owned by the cache and is
// only valid until Release.
func (b *Buf) Data() []byte { return b.e.data }

// Dev returns the device id of the cached block.
func (b *Buf) Dev() uint32 { return b.dev }

// BlockNo returns the block number of the cached block.
func (b *Buf) BlockNo() uint32 { return b.blockno }

// Valid reports whether Data holds the device contents of the block.
func (b *Buf) Valid() bool { return b.e.valid.Load() }

// Locked reports whether this handle still holds the buffer lock.
func (b *Buf) Locked() bool { return b.e.lock.HeldBy(b.token) }
