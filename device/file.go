package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/hupe1980/bcache/internal/fs"
)

// FileOption configures a FileDevice.
type FileOption func(*fileOptions)

type fileOptions struct {
	fs   fs.FileSystem
	sync bool
}

// WithFileSystem opens the image through fsys instead of the local filesystem.
func WithFileSystem(fsys fs.FileSystem) FileOption {
	return func(o *fileOptions) {
		o.fs = fsys
	}
}

// WithSyncWrites makes every WriteBlock fsync the image before returning.
func WithSyncWrites() FileOption {
	return func(o *fileOptions) {
		o.sync = true
	}
}

// FileDevice is a Device backed by a disk image file.
// Block n lives at byte offset n*blockSize.
type FileDevice struct {
	f         fs.File
	blockSize int
	numBlocks uint32
	sync      bool
	closed    atomic.Bool
}

// OpenFile opens (creating if needed) the disk image at path and grows it to
// hold numBlocks blocks of blockSize bytes. Existing content is preserved.
func OpenFile(path string, blockSize int, numBlocks uint32, optFns ...FileOption) (*FileDevice, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}
	if numBlocks == 0 {
		return nil, errors.New("file device needs at least one block")
	}

	opts := fileOptions{fs: fs.Default}
	for _, fn := range optFns {
		fn(&opts)
	}

	f, err := opts.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open disk image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat disk image: %w", err)
	}

	size := int64(blockSize) * int64(numBlocks)
	if info.Size() < size {
		if err := opts.fs.Truncate(path, size); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("grow disk image: %w", err)
		}
	}

	return &FileDevice{
		f:         f,
		blockSize: blockSize,
		numBlocks: numBlocks,
		sync:      opts.sync,
	}, nil
}

// NumBlocks returns the device size in blocks.
func (d *FileDevice) NumBlocks() uint32 {
	return d.numBlocks
}

// ReadBlock implements Device.
func (d *FileDevice) ReadBlock(_ context.Context, blockno uint32, p []byte) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if err := CheckBlock(blockno, p, d.blockSize, d.numBlocks); err != nil {
		return err
	}

	n, err := d.f.ReadAt(p, d.offset(blockno))
	if errors.Is(err, io.EOF) {
		// Sparse tail of an image that was grown outside of OpenFile.
		clear(p[n:])
		return nil
	}
	if err != nil {
		return fmt.Errorf("read block %d: %w", blockno, err)
	}
	return nil
}

// WriteBlock implements Device.
func (d *FileDevice) WriteBlock(_ context.Context, blockno uint32, p []byte) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if err := CheckBlock(blockno, p, d.blockSize, d.numBlocks); err != nil {
		return err
	}

	if _, err := d.f.WriteAt(p, d.offset(blockno)); err != nil {
		return fmt.Errorf("write block %d: %w", blockno, err)
	}
	if d.sync {
		if err := d.f.Sync(); err != nil {
			return fmt.Errorf("sync block %d: %w", blockno, err)
		}
	}
	return nil
}

// Close implements Device.
func (d *FileDevice) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	return d.f.Close()
}

func (d *FileDevice) offset(blockno uint32) int64 {
	return int64(blockno) * int64(d.blockSize)
}
