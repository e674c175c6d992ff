// Command bcache-bench drives a buffer cache with concurrent random block
// reads and writes and prints the resulting hit rate and transfer counts.
//
// Usage:
//
//	bcache-bench -device memory -workers 8 -ops 10000
//	bcache-bench -device file -path ./disk.img -blocks 4096
//	bcache-bench -device s3 -bucket my-bucket -prefix disks/root -compression zstd
//	bcache-bench -device minio -endpoint localhost:9000 -bucket disks
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/bcache"
	"github.com/hupe1980/bcache/codec"
	"github.com/hupe1980/bcache/device"
	miniodev "github.com/hupe1980/bcache/device/minio"
	s3dev "github.com/hupe1980/bcache/device/s3"
	"github.com/hupe1980/bcache/resource"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
)

var (
	deviceKind  = flag.String("device", "memory", "Device backend: memory, file, s3 or minio")
	path        = flag.String("path", "bcache-bench.img", "Disk image path for the file device")
	bucket      = flag.String("bucket", "bcache-bench", "Bucket for the s3 and minio devices")
	prefix      = flag.String("prefix", "bench", "Object key prefix for the s3 and minio devices")
	endpoint    = flag.String("endpoint", "localhost:9000", "MinIO endpoint")
	accessKey   = flag.String("access-key", "minioadmin", "MinIO access key")
	secretKey   = flag.String("secret-key", "minioadmin", "MinIO secret key")
	compression = flag.String("compression", "lz4", "Object compression: none, lz4 or zstd")

	buffers   = flag.Int("buffers", bcache.DefaultBuffers, "Number of cache buffers")
	buckets   = flag.Int("buckets", bcache.DefaultBuckets, "Number of hash buckets")
	blockSize = flag.Int("block-size", bcache.DefaultBlockSize, "Block size in bytes")
	blocks    = flag.Uint("blocks", 1024, "Device size in blocks")

	workers    = flag.Int("workers", 8, "Concurrent workers")
	ops        = flag.Int("ops", 10000, "Operations per worker")
	writeRatio = flag.Float64("write-ratio", 0.1, "Fraction of operations that write")
	skew       = flag.Float64("skew", 1.2, "Zipf skew of block popularity (> 1)")
	ioLimit    = flag.Int64("io-limit", 0, "Device transfer limit in bytes/s (0 = unlimited)")
	latency    = flag.Duration("latency", 0, "Simulated latency of the memory device")
	seed       = flag.Int64("seed", 1, "Random seed")
	verbose    = flag.Bool("v", false, "Log evictions and transfers")
)

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *workers > *buffers {
		log.Fatalf("workers (%d) must not exceed buffers (%d)", *workers, *buffers)
	}
	if *skew <= 1 {
		log.Fatalf("skew must be greater than 1, got %v", *skew)
	}

	dev, err := openDevice(ctx)
	if err != nil {
		log.Fatal(err)
	}

	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: *ioLimit})
	if *ioLimit > 0 {
		dev = device.NewThrottled(dev, rc)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	metrics := &bcache.BasicMetricsCollector{}
	cache, err := bcache.New(
		bcache.WithBuffers(*buffers),
		bcache.WithBuckets(*buckets),
		bcache.WithBlockSize(*blockSize),
		bcache.WithDevice(1, dev),
		bcache.WithLogger(bcache.NewTextLogger(level)),
		bcache.WithMetricsCollector(metrics),
		bcache.WithResourceController(rc),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer cache.Close()

	fmt.Printf("Running %d workers x %d ops on %s device (%d blocks)\n", *workers, *ops, *deviceKind, *blocks)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := range *workers {
		g.Go(func() error {
			return run(gctx, cache, *seed+int64(w))
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Benchmark stopped: %v", err)
	}
	elapsed := time.Since(start)

	s := cache.Stats()
	m := metrics.GetStats()
	total := s.Hits + s.Misses

	fmt.Printf("\nElapsed:    %v\n", elapsed.Round(time.Millisecond))
	if total > 0 {
		fmt.Printf("Lookups:    %d (%.0f/s)\n", total, float64(total)/elapsed.Seconds())
		fmt.Printf("Hit rate:   %.2f%%\n", 100*float64(s.Hits)/float64(total))
	}
	fmt.Printf("Evictions:  %d\n", s.Evictions)
	fmt.Printf("Reads:      %d (avg %v)\n", s.Reads, time.Duration(m.ReadAvgNanos))
	fmt.Printf("Writes:     %d (avg %v)\n", s.Writes, time.Duration(m.WriteAvgNanos))
	fmt.Printf("Buffers:    %d free, %d held, %d valid\n", s.Free, s.Held, s.Valid)
	fmt.Printf("Resident:   %d blocks\n", cache.Resident(1).GetCardinality())
}

// run performs the operations of one worker.
func run(ctx context.Context, cache *bcache.Cache, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	zipf := rand.NewZipf(rng, *skew, 1, uint64(*blocks-1))

	for i := range *ops {
		if err := ctx.Err(); err != nil {
			return err
		}

		blockno := uint32(zipf.Uint64())
		b := cache.Read(ctx, 1, blockno)
		if rng.Float64() < *writeRatio {
			binary.LittleEndian.PutUint64(b.Data(), uint64(i))
			cache.Write(ctx, b)
		}
		cache.Release(b)
	}
	return nil
}

func openDevice(ctx context.Context) (device.Device, error) {
	c, err := codec.ParseCompression(*compression)
	if err != nil {
		return nil, err
	}

	switch *deviceKind {
	case "memory":
		dev := device.NewMemoryDevice(*blockSize, uint32(*blocks))
		dev.SetLatency(*latency)
		return dev, nil
	case "file":
		return device.OpenFile(*path, *blockSize, uint32(*blocks))
	case "s3":
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := awss3.NewFromConfig(cfg)
		return s3dev.New(client, *bucket, *prefix, *blockSize,
			s3dev.WithCompression(c),
			s3dev.WithNumBlocks(uint32(*blocks)),
		), nil
	case "minio":
		client, err := minio.New(*endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(*accessKey, *secretKey, ""),
			Secure: false,
		})
		if err != nil {
			return nil, fmt.Errorf("create MinIO client: %w", err)
		}
		exists, err := client.BucketExists(ctx, *bucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, *bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("create bucket: %w", err)
			}
		}
		return miniodev.New(client, *bucket, *prefix, *blockSize,
			miniodev.WithCompression(c),
			miniodev.WithNumBlocks(uint32(*blocks)),
		), nil
	default:
		return nil, fmt.Errorf("unknown device %q", *deviceKind)
	}
}
