package benchmark_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/bcache"
	"github.com/hupe1980/bcache/device"
	"github.com/hupe1980/bcache/testutil"
)

const blockSize = 4096

func newCache(b *testing.B, buffers, buckets int) *bcache.Cache {
	b.Helper()
	c, err := bcache.New(
		bcache.WithBuffers(buffers),
		bcache.WithBuckets(buckets),
		bcache.WithBlockSize(blockSize),
		bcache.WithDevice(1, device.NewMemoryDevice(blockSize, 0)),
	)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = c.Close() })
	return c
}

func BenchmarkRead_Hit(b *testing.B) {
	ctx := context.Background()
	c := newCache(b, 64, 13)
	c.Release(c.Read(ctx, 1, 7))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Release(c.Read(ctx, 1, 7))
	}
}

func BenchmarkRead_Miss(b *testing.B) {
	ctx := context.Background()
	c := newCache(b, 64, 13)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Sequential blocks beyond the pool size never hit.
		c.Release(c.Read(ctx, 1, uint32(i)))
	}
}

func BenchmarkWrite(b *testing.B) {
	ctx := context.Background()
	c := newCache(b, 64, 13)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf := c.Read(ctx, 1, uint32(i%32))
		buf.Data()[0] = byte(i)
		c.Write(ctx, buf)
		c.Release(buf)
	}
}

// BenchmarkRead_Parallel compares a single lock against per-bucket locks
// under a skewed workload of concurrent readers.
func BenchmarkRead_Parallel(b *testing.B) {
	for _, buckets := range []int{1, 13, 61} {
		b.Run(fmt.Sprintf("buckets=%d", buckets), func(b *testing.B) {
			ctx := context.Background()
			c := newCache(b, 256, buckets)
			blocks := testutil.NewRNG(1).ZipfBlocks(4096, 1024, 1.1)

			var next atomic.Uint64
			b.ReportAllocs()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					blockno := blocks[next.Add(1)%uint64(len(blocks))]
					c.Release(c.Read(ctx, 1, blockno))
				}
			})

			s := c.Stats()
			b.ReportMetric(float64(s.Hits)/float64(s.Hits+s.Misses), "hit-ratio")
		})
	}
}
