package minio

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/bcache/codec"
	"github.com/hupe1980/bcache/device"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_KeyLayout(t *testing.T) {
	dev := New(nil, "disks", "root/", 512)
	assert.Equal(t, "root/0000000042.blk", dev.key(42))

	bounded := New(nil, "disks", "", 512, WithNumBlocks(8))
	assert.ErrorIs(t, bounded.check(8, make([]byte, 512)), device.ErrOutOfRange)
	assert.ErrorIs(t, bounded.check(0, make([]byte, 511)), device.ErrBlockSize)
	assert.NoError(t, bounded.check(7, make([]byte, 512)))
	assert.NoError(t, bounded.Close())
}

// TestDevice_Integration requires a running MinIO instance.
// Skip if not available.
func TestDevice_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	bucket := "test-bcache"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	dev := New(client, bucket, t.Name(), 1024, WithCompression(codec.CompressionZSTD))

	// Never-written blocks read as zeroes.
	got := bytes.Repeat([]byte{0xFF}, 1024)
	require.NoError(t, dev.ReadBlock(ctx, 1000, got))
	assert.Equal(t, make([]byte, 1024), got)

	block := bytes.Repeat([]byte("dirent"), 200)[:1024]
	require.NoError(t, dev.WriteBlock(ctx, 1, block))
	require.NoError(t, dev.ReadBlock(ctx, 1, got))
	assert.Equal(t, block, got)

	_ = client.RemoveObject(ctx, bucket, dev.key(1), minio.RemoveObjectOptions{})
}
