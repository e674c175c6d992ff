package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/hupe1980/bcache/codec"
	"github.com/hupe1980/bcache/device"
	"github.com/minio/minio-go/v7"
)

// Option configures a Device.
type Option func(*Device)

// WithCompression selects the payload compression of written blocks.
func WithCompression(c codec.Compression) Option {
	return func(d *Device) {
		d.compression = c
	}
}

// WithNumBlocks bounds the device. Zero (the default) means unbounded.
func WithNumBlocks(n uint32) Option {
	return func(d *Device) {
		d.numBlocks = n
	}
}

// Device implements device.Device with one MinIO object per block.
type Device struct {
	client      *minio.Client
	bucket      string
	prefix      string
	blockSize   int
	numBlocks   uint32
	compression codec.Compression
}

var _ device.Device = (*Device)(nil)

// New creates a MinIO block device under bucket/prefix.
func New(client *minio.Client, bucket, prefix string, blockSize int, optFns ...Option) *Device {
	d := &Device{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		blockSize: blockSize,
	}
	for _, fn := range optFns {
		fn(d)
	}
	return d
}

func (d *Device) key(blockno uint32) string {
	return path.Join(d.prefix, fmt.Sprintf("%010d.blk", blockno))
}

func (d *Device) check(blockno uint32, p []byte) error {
	return device.CheckBlock(blockno, p, d.blockSize, d.numBlocks)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// ReadBlock implements device.Device.
func (d *Device) ReadBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := d.check(blockno, p); err != nil {
		return err
	}

	obj, err := d.client.GetObject(ctx, d.bucket, d.key(blockno), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			clear(p)
			return nil
		}
		return fmt.Errorf("get block %d: %w", blockno, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	frame, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			clear(p)
			return nil
		}
		return fmt.Errorf("read block %d: %w", blockno, err)
	}

	if err := codec.Decode(frame, p); err != nil {
		return fmt.Errorf("decode block %d: %w", blockno, err)
	}
	return nil
}

// WriteBlock implements device.Device.
func (d *Device) WriteBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := d.check(blockno, p); err != nil {
		return err
	}

	frame, err := codec.Encode(p, d.compression)
	if err != nil {
		return fmt.Errorf("encode block %d: %w", blockno, err)
	}

	_, err = d.client.PutObject(ctx, d.bucket, d.key(blockno), bytes.NewReader(frame), int64(len(frame)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("put block %d: %w", blockno, err)
	}
	return nil
}

// Close implements device.Device. The MinIO client is owned by the caller.
func (d *Device) Close() error {
	return nil
}
