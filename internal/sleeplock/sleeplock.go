// Package sleeplock provides a blocking exclusive lock for long holds.
//
// Waiters park on a weighted semaphore instead of spinning, so a holder may
// keep the lock across slow device I/O without burning CPU in the goroutines
// queued behind it.
package sleeplock

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Lock is an exclusive lock whose waiters sleep until it is released.
// The zero value is not usable; create locks with New.
//
// Every acquisition is numbered. The number is the holder's token: only
// the token of the current acquisition releases the lock, so a holder that
// already released cannot unlock a later holder.
type Lock struct {
	sem   *semaphore.Weighted
	seq   atomic.Uint64
	owner atomic.Uint64 // token of the current holder, 0 when unlocked
	name  string
}

// New creates an unlocked Lock. The name only appears in diagnostics.
func New(name string) *Lock {
	return &Lock{
		sem:  semaphore.NewWeighted(1),
		name: name,
	}
}

// Acquire blocks until the lock is held by the caller and returns the
// token of this acquisition. Tokens are never 0.
// The wait cannot be cancelled.
func (l *Lock) Acquire() uint64 {
	// Acquire on a background context only fails if the context is done.
	_ = l.sem.Acquire(context.Background(), 1)
	return l.take()
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (l *Lock) TryAcquire() (uint64, bool) {
	if !l.sem.TryAcquire(1) {
		return 0, false
	}
	return l.take(), true
}

func (l *Lock) take() uint64 {
	token := l.seq.Add(1)
	l.owner.Store(token)
	return token
}

// Release unlocks the lock and wakes one waiter. It returns false, leaving
// the lock untouched, when token is not the current acquisition.
func (l *Lock) Release(token uint64) bool {
	if token == 0 || !l.owner.CompareAndSwap(token, 0) {
		return false
	}
	l.sem.Release(1)
	return true
}

// Holding reports whether the lock is currently held by anyone.
func (l *Lock) Holding() bool {
	return l.owner.Load() != 0
}

// HeldBy reports whether token is the current acquisition.
func (l *Lock) HeldBy(token uint64) bool {
	return token != 0 && l.owner.Load() == token
}

// Name returns the diagnostic name given to New.
func (l *Lock) Name() string {
	return l.name
}
