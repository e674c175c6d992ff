// Package codec frames device blocks for object storage.
//
// A frame is a fixed header followed by the (optionally compressed) block:
//
//	[Compression uint8][reserved 3][BlockSize uint32][PayloadSize uint32][CRC32C uint32][payload]
//
// The checksum covers the uncompressed block, so a frame decoded with the
// wrong codec or damaged in transit is rejected with ErrCorrupt.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/bcache/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload encoding of a frame.
type Compression uint8

const (
	// CompressionNone stores the block as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a name accepted by String back to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// HeaderSize is the size of the frame header in bytes.
const HeaderSize = 16

// MaxBlockSize is the largest block a frame may carry. It also bounds the
// memory a zstd decoder may allocate for one frame.
const MaxBlockSize = 1 << 20

// ErrCorrupt is returned when a frame fails validation.
var ErrCorrupt = errors.New("corrupt block frame")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(MaxBlockSize),
	)
	return dec
}

// Encode frames block using the requested compression. When compression
// saves less than 10% the block is stored uncompressed.
func Encode(block []byte, c Compression) ([]byte, error) {
	if len(block) > MaxBlockSize {
		return nil, fmt.Errorf("block of %d bytes exceeds %d", len(block), MaxBlockSize)
	}

	var payload []byte

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(block)))
		n, err := lz4.CompressBlock(block, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		payload = dst[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(block, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}

	if len(payload) == 0 || float64(len(payload)) > float64(len(block))*0.9 {
		c = CompressionNone
		payload = block
	}

	frame := make([]byte, HeaderSize+len(payload))
	frame[0] = byte(c)
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(block)))
	binary.LittleEndian.PutUint32(frame[8:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(frame[12:], hash.CRC32C(block))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// Decode validates frame and writes the block it carries into dst.
// dst must be exactly the framed block size.
func Decode(frame []byte, dst []byte) error {
	if len(frame) < HeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(frame))
	}

	c := Compression(frame[0])
	blockSize := binary.LittleEndian.Uint32(frame[4:])
	payloadSize := binary.LittleEndian.Uint32(frame[8:])
	checksum := binary.LittleEndian.Uint32(frame[12:])

	if blockSize > MaxBlockSize {
		return fmt.Errorf("%w: block size %d exceeds %d", ErrCorrupt, blockSize, MaxBlockSize)
	}
	if int(blockSize) != len(dst) {
		return fmt.Errorf("%w: block size %d, want %d", ErrCorrupt, blockSize, len(dst))
	}
	if uint64(len(frame)) != uint64(HeaderSize)+uint64(payloadSize) {
		return fmt.Errorf("%w: payload size %d does not match frame", ErrCorrupt, payloadSize)
	}
	payload := frame[HeaderSize:]

	switch c {
	case CompressionNone:
		if len(payload) != len(dst) {
			return fmt.Errorf("%w: stored block has %d bytes", ErrCorrupt, len(payload))
		}
		copy(dst, payload)
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if n != len(dst) {
			return fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, n, len(dst))
		}
	case CompressionZSTD:
		var h zstd.Header
		if err := h.Decode(payload); err != nil {
			return fmt.Errorf("%w: zstd header: %w", ErrCorrupt, err)
		}
		if h.HasFCS && h.FrameContentSize != uint64(len(dst)) {
			return fmt.Errorf("%w: zstd frame holds %d bytes, want %d", ErrCorrupt, h.FrameContentSize, len(dst))
		}
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, dst[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if len(out) != len(dst) {
			return fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, len(out), len(dst))
		}
		copy(dst, out)
	default:
		return fmt.Errorf("%w: unknown compression %d", ErrCorrupt, uint8(c))
	}

	if hash.CRC32C(dst) != checksum {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return nil
}
