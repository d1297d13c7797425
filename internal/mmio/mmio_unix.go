//go:build linux || darwin

package mmio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OpenRW opens an existing file read-write and maps its full current length.
func OpenRW(path string) (*File, error) {
	fh, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("mmio: open_rw: %w", err)
	}
	return mapFile(fh, path, true)
}

// OpenRO opens an existing file read-only and maps its full current length.
func OpenRO(path string) (*File, error) {
	fh, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmio: open_ro: %w", err)
	}
	return mapFile(fh, path, false)
}

// CreateRW creates (reusing the file if it already exists) and truncates it
// to size, then maps it read-write.
func CreateRW(path string, size int64) (*File, error) {
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("mmio: create_rw: %w", err)
	}
	if size > 0 {
		if err := fh.Truncate(size); err != nil {
			fh.Close()
			return nil, fmt.Errorf("mmio: create_rw truncate: %w", err)
		}
	}
	return mapFile(fh, path, true)
}

// CreateRO creates (reusing the file if it already exists), truncates it to
// size, then maps it read-only. Rarely useful on its own (the producer
// always needs a writeable mapping to initialize the header) but completes
// the primitive's contract.
func CreateRO(path string, size int64) (*File, error) {
	// Opened read-write only so Truncate can size the file; the mapping
	// itself is read-only.
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("mmio: create_ro: %w", err)
	}
	if size > 0 {
		if err := fh.Truncate(size); err != nil {
			fh.Close()
			return nil, fmt.Errorf("mmio: create_ro truncate: %w", err)
		}
	}
	return mapFile(fh, path, false)
}

func mapFile(fh *os.File, path string, writeable bool) (*File, error) {
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("mmio: stat: %w", err)
	}
	size := info.Size()

	prot := unix.PROT_READ
	if writeable {
		prot |= unix.PROT_WRITE
	}

	var region []byte
	if size > 0 {
		region, err = unix.Mmap(int(fh.Fd()), 0, int(size), prot, unix.MAP_SHARED)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("mmio: mmap: %w", err)
		}
	}

	f := &File{path: path, file: fh, writeable: writeable, size: size}
	if writeable {
		f.rw = region
		f.ro = region
	} else {
		f.ro = region
	}
	return f, nil
}

// ExtendSize unmaps the region, sets the underlying file length to newSize
// (which must be >= the current size), then remaps over the new full
// length. Any address previously returned by AddressRW/AddressRO is
// invalidated by this call. Only valid for files opened/created read-write.
func (f *File) ExtendSize(newSize int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return ErrClosed
	}
	if !f.writeable {
		return ErrNotWriteable
	}
	if newSize < f.size {
		return fmt.Errorf("mmio: extend_size: new size %d smaller than current %d", newSize, f.size)
	}

	if f.rw != nil {
		if err := unix.Munmap(f.rw); err != nil {
			return fmt.Errorf("mmio: extend_size munmap: %w", err)
		}
		f.rw, f.ro = nil, nil
	}

	if err := f.file.Truncate(newSize); err != nil {
		return fmt.Errorf("mmio: extend_size truncate: %w", err)
	}

	var region []byte
	var err error
	if newSize > 0 {
		region, err = unix.Mmap(int(f.file.Fd()), 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return fmt.Errorf("mmio: extend_size mmap: %w", err)
		}
	}
	f.rw = region
	f.ro = region
	f.size = newSize
	return nil
}

// Sync flushes the full mapped region to disk: a synchronous page flush
// (msync MS_SYNC) followed by an fsync of the underlying file. No-op on a
// read-only mapping.
func (f *File) Sync() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.writeable || f.rw == nil {
		return nil
	}
	return syncRange(f, 0, int64(len(f.rw)))
}

// SyncRange flushes offset..offset+n of the mapped region, aligning the
// start down to a page boundary as the platform requires. No-op on a
// read-only mapping.
func (f *File) SyncRange(offset, n int64) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.writeable || f.rw == nil {
		return nil
	}
	return syncRange(f, offset, n)
}

func syncRange(f *File, offset, n int64) error {
	pageSize := int64(unix.Getpagesize())
	aligned := offset &^ (pageSize - 1)
	length := n + (offset - aligned)
	if aligned+length > int64(len(f.rw)) {
		length = int64(len(f.rw)) - aligned
	}
	if length <= 0 {
		return nil
	}
	if err := unix.Msync(f.rw[aligned:aligned+length], unix.MS_SYNC|unix.MS_INVALIDATE); err != nil {
		return fmt.Errorf("mmio: msync: %w", err)
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("mmio: fsync: %w", err)
	}
	return nil
}

// Close flushes (if writeable), unmaps, and closes the underlying file
// handle. Idempotent: calling Close twice is a no-op the second time.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	var syncErr error
	if f.writeable && f.rw != nil {
		syncErr = syncRange(f, 0, int64(len(f.rw)))
	}

	if f.rw != nil {
		if err := unix.Munmap(f.rw); err != nil && syncErr == nil {
			syncErr = fmt.Errorf("mmio: close munmap: %w", err)
		}
	}
	f.rw, f.ro = nil, nil

	closeErr := f.file.Close()
	f.file = nil

	if syncErr != nil {
		return syncErr
	}
	if closeErr != nil {
		return fmt.Errorf("mmio: close: %w", closeErr)
	}
	return nil
}
