// Package resource implements the Controller for process-wide limits.
//
// The Controller governs two resource types shared by every cache and
// device in the process:
//
//   - Memory: the bytes pinned by buffer pools (non-blocking, fail-fast)
//   - IO: a token bucket limiting device transfer throughput
//
// # Memory Management
//
// A buffer pool is allocated once and never grows, so memory is reserved
// up front. TryAcquireMemory is non-blocking and fails immediately with
// ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(int64(nbuf * blockSize)); err != nil {
//	    return err // pool does not fit the budget
//	}
//	defer rc.ReleaseMemory(int64(nbuf * blockSize))
//
// # IO Rate Limiting
//
// AcquireIO waits until the token bucket admits the requested bytes:
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 8 << 20, // 8MB/s
//	})
//
//	if err := rc.AcquireIO(ctx, blockSize); err != nil {
//	    return err
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
