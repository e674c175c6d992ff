// Package hash provides the checksum used to detect corrupt block frames.
//
// Blocks stored in object stores travel through the network and through
// third-party storage, so every stored frame carries a CRC32-Castagnoli
// (CRC32C) of its uncompressed block:
//
//   - Hardware acceleration on x86 (SSE4.2) and ARM (CRC extension)
//   - Detects all single-bit, double-bit and odd-bit errors, and burst
//     errors up to 32 bits
//
// # Usage
//
//	checksum := hash.CRC32C(block)
//
//	h := hash.NewCRC32C()
//	h.Write(header)
//	h.Write(block)
//	checksum := h.Sum32()
package hash
