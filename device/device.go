package device

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned for block numbers beyond the end of the device.
	ErrOutOfRange = errors.New("block number out of range")

	// ErrBlockSize is returned when a buffer is not exactly one block.
	ErrBlockSize = errors.New("buffer is not one block")

	// ErrClosed is returned by transfers on a closed device.
	ErrClosed = errors.New("device closed")
)

// Device transfers fixed-size blocks.
type Device interface {
	// ReadBlock fills p with the contents of block blockno.
	ReadBlock(ctx context.Context, blockno uint32, p []byte) error
	// WriteBlock stores p as the contents of block blockno.
	WriteBlock(ctx context.Context, blockno uint32, p []byte) error
	// Close releases the device.
	Close() error
}

// CheckBlock validates a transfer request against a device geometry.
// A numBlocks of 0 means the device is unbounded.
func CheckBlock(blockno uint32, p []byte, blockSize int, numBlocks uint32) error {
	if len(p) != blockSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBlockSize, len(p), blockSize)
	}
	if numBlocks > 0 && blockno >= numBlocks {
		return fmt.Errorf("%w: block %d, device has %d", ErrOutOfRange, blockno, numBlocks)
	}
	return nil
}
