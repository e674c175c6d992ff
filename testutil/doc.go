// Package testutil provides testing utilities for bcache.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source for block workloads and device
// wrappers that record or fail transfers.
//
// # Random Workloads
//
//	rng := testutil.NewRNG(seed)
//	blockno := rng.Block(1024)         // uniform
//	hot := rng.ZipfBlock(1024, 1.5)    // skewed towards low block numbers
//	rng.FillBlock(buf)                 // random block contents
//
// # Recording Transfers
//
//	dev := testutil.NewRecordingDevice(device.NewMemoryDevice(512, 64))
//	// ... drive a cache ...
//	reads := dev.Reads(7) // transfers of block 7
package testutil
