package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/bcache/codec"
	"github.com/hupe1980/bcache/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestDevice_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	client := new(MockS3Client)
	dev := New(client, "test-bucket", "disks/root", 256, WithCompression(codec.CompressionLZ4))

	block := bytes.Repeat([]byte("superblock"), 26)[:256]

	var stored []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "test-bucket" && *in.Key == "disks/root/0000000007.blk"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		stored, _ = io.ReadAll(in.Body)
		assert.Equal(t, int64(len(stored)), *in.ContentLength)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, dev.WriteBlock(ctx, 7, block))
	require.NotEmpty(t, stored)
	assert.Equal(t, codec.CompressionLZ4, codec.Compression(stored[0]))

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Key == "disks/root/0000000007.blk"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(stored))}, nil).Once()

	got := make([]byte, 256)
	require.NoError(t, dev.ReadBlock(ctx, 7, got))
	assert.Equal(t, block, got)

	client.AssertExpectations(t)
}

func TestDevice_ReadMissingBlock(t *testing.T) {
	client := new(MockS3Client)
	dev := New(client, "b", "p", 16)

	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

	got := bytes.Repeat([]byte{0xFF}, 16)
	require.NoError(t, dev.ReadBlock(context.Background(), 3, got))
	assert.Equal(t, make([]byte, 16), got)
}

func TestDevice_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Geometry", func(t *testing.T) {
		dev := New(new(MockS3Client), "b", "p", 16, WithNumBlocks(4))
		assert.ErrorIs(t, dev.ReadBlock(ctx, 4, make([]byte, 16)), device.ErrOutOfRange)
		assert.ErrorIs(t, dev.WriteBlock(ctx, 0, make([]byte, 8)), device.ErrBlockSize)
	})

	t.Run("Transport", func(t *testing.T) {
		client := new(MockS3Client)
		dev := New(client, "b", "p", 16)
		boom := errors.New("connection reset")

		client.On("GetObject", mock.Anything, mock.Anything).Return(nil, boom).Once()
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, boom).Once()

		assert.ErrorIs(t, dev.ReadBlock(ctx, 0, make([]byte, 16)), boom)
		assert.ErrorIs(t, dev.WriteBlock(ctx, 0, make([]byte, 16)), boom)
	})

	t.Run("Corrupt", func(t *testing.T) {
		client := new(MockS3Client)
		dev := New(client, "b", "p", 16)

		frame, err := codec.Encode(make([]byte, 16), codec.CompressionNone)
		require.NoError(t, err)
		frame[len(frame)-1] ^= 0x01

		client.On("GetObject", mock.Anything, mock.Anything).
			Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(frame))}, nil).Once()

		assert.ErrorIs(t, dev.ReadBlock(ctx, 0, make([]byte, 16)), codec.ErrCorrupt)
	})

	assert.NoError(t, New(new(MockS3Client), "b", "p", 16).Close())
}
