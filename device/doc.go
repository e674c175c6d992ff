// Package device defines the block transfer collaborator used by bcache.
//
// A Device moves exactly one block between memory and backing storage per
// call. Transfers are synchronous: they return only once the block has been
// read into, or written from, the caller's buffer.
//
// # Built-in Implementations
//
//   - MemoryDevice: sparse in-memory device with transfer counters (tests)
//   - FileDevice: a disk image on the local filesystem
//   - Throttled: wraps any Device with a shared IO rate limit
//   - s3.Device: one S3 object per block
//   - minio.Device: one object per block on MinIO / S3-compatible storage
//
// # Custom Implementations
//
//	type Device interface {
//	    ReadBlock(ctx, blockno, p) error
//	    WriteBlock(ctx, blockno, p) error
//	    Close() error
//	}
//
// len(p) is always the cache's block size. Implementations must be safe for
// concurrent use on distinct block numbers; the cache never issues two
// concurrent transfers for the same block.
package device
