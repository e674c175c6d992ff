// Package s3 provides a block Device stored in Amazon S3.
//
// Every block is a separate object named "<prefix>/<blockno>.blk", framed by
// the codec package (CRC32C checksum, optional LZ4/ZSTD compression).
// Blocks that were never written read as zeroes, so a fresh bucket prefix
// behaves like a zero-filled disk.
//
// # Basic Usage
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	dev := s3.New(awss3.NewFromConfig(cfg), "my-bucket", "disks/root", 4096,
//	    s3.WithCompression(codec.CompressionZSTD))
//
//	cache, _ := bcache.New(bcache.WithBlockSize(4096), bcache.WithDevice(1, dev))
//
// Each transfer is one request, so pair this device with a cache large
// enough to absorb the working set, and optionally with device.Throttled.
package s3
