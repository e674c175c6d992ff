package bcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLocked is raised when Write or Release is called on a buffer
	// that is not locked.
	ErrNotLocked = errors.New("buffer not locked")

	// ErrNegativeRef is raised when Unpin would drop a reference count below zero.
	ErrNegativeRef = errors.New("negative buffer reference count")

	// ErrNoBuffers is raised when a miss finds no unreferenced buffer.
	ErrNoBuffers = errors.New("no buffers")

	// ErrUnknownDevice is raised for a device id that was not registered.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrInvalidConfig is returned by New for unusable options.
	ErrInvalidConfig = errors.New("invalid config")
)

// FatalError is the panic value of every fatal condition in the cache.
//
// The underlying sentinel or device error can be accessed via errors.Unwrap.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("bcache: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
