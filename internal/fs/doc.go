// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file addressed by offset (ReadAt/WriteAt) with Sync
//   - [FileSystem]: the open and truncate calls a file-backed device makes
//
// # Implementations
//
//   - [LocalFS]: production implementation using the standard os package
//   - [FaultyFS]: test utility that injects read, write, sync and close errors
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests can inject [FaultyFS] to simulate a failing disk image:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("disk.img", fs.Fault{FailAfterBytes: 4096})
//	dev, _ := device.OpenFile("disk.img", 1024, 64, device.WithFileSystem(ffs))
//
// # Design Notes
//
// The package does not take context.Context parameters. Local file
// operations are not interruptible at the syscall level.
package fs
