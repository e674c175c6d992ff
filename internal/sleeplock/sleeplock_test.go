package sleeplock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_AcquireRelease(t *testing.T) {
	l := New("buffer")
	assert.Equal(t, "buffer", l.Name())
	assert.False(t, l.Holding())

	tok := l.Acquire()
	assert.NotZero(t, tok)
	assert.True(t, l.Holding())
	assert.True(t, l.HeldBy(tok))
	_, ok := l.TryAcquire()
	assert.False(t, ok)

	require.True(t, l.Release(tok))
	assert.False(t, l.Holding())
	assert.False(t, l.HeldBy(tok))

	next, ok := l.TryAcquire()
	require.True(t, ok)
	assert.NotEqual(t, tok, next)
	require.True(t, l.Release(next))
}

func TestLock_ReleaseUnlocked(t *testing.T) {
	l := New("buffer")
	assert.False(t, l.Release(0))
	assert.False(t, l.Release(1))

	// A failed release must not leave a spare permit behind.
	tok := l.Acquire()
	_, ok := l.TryAcquire()
	assert.False(t, ok)
	require.True(t, l.Release(tok))
}

func TestLock_StaleToken(t *testing.T) {
	l := New("buffer")

	stale := l.Acquire()
	require.True(t, l.Release(stale))

	cur := l.Acquire()
	assert.False(t, l.HeldBy(stale))
	assert.False(t, l.Release(stale))
	assert.False(t, l.Release(0))

	// The current holder keeps the lock.
	assert.True(t, l.HeldBy(cur))
	_, ok := l.TryAcquire()
	assert.False(t, ok)
	require.True(t, l.Release(cur))
}

func TestLock_WaiterBlocksUntilRelease(t *testing.T) {
	l := New("buffer")
	tok := l.Acquire()

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		tok := l.Acquire()
		acquired.Store(true)
		l.Release(tok)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, acquired.Load(), "waiter must block while the lock is held")

	require.True(t, l.Release(tok))
	<-done
	assert.True(t, acquired.Load())
}

func TestLock_MutualExclusion(t *testing.T) {
	l := New("buffer")

	const goroutines = 16
	const iterations = 200

	var inside atomic.Int32
	var violations atomic.Int32
	counter := 0

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				tok := l.Acquire()
				if inside.Add(1) != 1 {
					violations.Add(1)
				}
				counter++
				inside.Add(-1)
				l.Release(tok)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, violations.Load())
	assert.Equal(t, goroutines*iterations, counter)
}
