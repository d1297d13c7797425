//go:build linux || darwin

package mmio

// platformHandle is unused on POSIX platforms: mmap/munmap operate
// directly on the file descriptor, with no separate mapping-object handle
// to track the way Windows requires.
type platformHandle = struct{}
