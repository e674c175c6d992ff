package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/bcache/codec"
	"github.com/hupe1980/bcache/device"
)

// Client is the subset of the S3 API used by Device.
// *s3.Client satisfies it.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Option configures a Device.
type Option func(*Device)

// WithCompression selects the payload compression of written blocks.
// Reads accept any compression.
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

// Device implements device.Device with one S3 object per block.
type Device struct {
	client      Client
	bucket      string
	prefix      string
	blockSize   int
	numBlocks   uint32
	compression codec.Compression
}

var _ device.Device = (*Device)(nil)

// New creates an S3 block device under bucket/prefix.
func New(client Client, bucket, prefix string, blockSize int, optFns ...Option) *Device {
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

// ReadBlock implements device.Device.
func (d *Device) ReadBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := d.check(blockno, p); err != nil {
		return err
	}

	resp, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(blockno)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			clear(p)
			return nil
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			clear(p)
			return nil
		}
		return fmt.Errorf("get block %d: %w", blockno, err)
	}
	defer func() { _ = resp.Body.Close() }()

	frame, err := io.ReadAll(resp.Body)
	if err != nil {
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

	_, err = d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(d.key(blockno)),
		Body:          bytes.NewReader(frame),
		ContentLength: aws.Int64(int64(len(frame))),
	})
	if err != nil {
		return fmt.Errorf("put block %d: %w", blockno, err)
	}
	return nil
}

// Close implements device.Device. The S3 client is owned by the caller.
func (d *Device) Close() error {
	return nil
}
