// Package bcache provides a concurrent block buffer cache.
//
// A Cache holds a fixed pool of block-sized buffers in front of one or more
// block devices. Buffers are found through a hash table whose buckets each
// carry their own lock, so lookups of blocks in different buckets never
// contend. When a lookup misses, the least recently released unreferenced
// buffer anywhere in the pool is reassigned to the requested block.
//
// # Quick Start
//
//	dev := device.NewMemoryDevice(1024, 4096)
//	cache, err := bcache.New(
//	    bcache.WithBuffers(64),
//	    bcache.WithDevice(1, dev),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	b := cache.Read(ctx, 1, 42) // locked, contents valid
//	copy(b.Data(), "hello")
//	cache.Write(ctx, b)         // synchronous write-through
//	cache.Release(b)
//
// # Locking Model
//
// Read returns a buffer that is locked for the caller alone. Other callers
// asking for the same block sleep until Release. Every Read hands out a new
// *Buf tied to that one acquisition: once released, the handle cannot write
// or release the buffer again, even after another caller has locked it.
//
// A context passed to Read or Write carries values to the device, but its
// cancellation is not forwarded. A transfer that has started always
// finishes, so a cancelled caller never leaves a buffer locked.
//
// Pin and Unpin keep a buffer resident without locking it.
//
// # Failure Model
//
// The core returns no recoverable errors. Contract violations (writing or
// releasing a buffer that is not locked, unpinning below zero), exhaustion of
// the pool and device failures panic with a *FatalError, which wraps one of
// the sentinel errors of this package or the device error:
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        if err, ok := r.(error); ok && errors.Is(err, bcache.ErrNoBuffers) {
//	            // pool too small for the number of concurrent holders
//	        }
//	        panic(r)
//	    }
//	}()
//
// # Devices
//
// Any device.Device can back a cache: device.MemoryDevice, device.FileDevice,
// and the object-store devices in device/s3 and device/minio. Wrap a device
// with device.NewThrottled to bound its transfer rate.
package bcache
