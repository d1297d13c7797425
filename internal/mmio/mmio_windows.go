//go:build windows

package mmio

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// unsafeSlice builds a byte slice over a mapped view's base address. The
// view's lifetime is owned by the File; callers must not retain the slice
// past the next ExtendSize/Close.
func unsafeSlice(addr uintptr, n int) []byte {
	if n == 0 || addr == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}

func uintptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

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
// size, then maps it read-only.
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

	f := &File{path: path, file: fh, writeable: writeable, size: size}
	if size == 0 {
		return f, nil
	}

	region, mapping, err := createView(windows.Handle(fh.Fd()), size, writeable)
	if err != nil {
		fh.Close()
		return nil, err
	}
	f.winMapping = mapping
	if writeable {
		f.rw = region
		f.ro = region
	} else {
		f.ro = region
	}
	return f, nil
}

func createView(fd windows.Handle, size int64, writeable bool) ([]byte, windows.Handle, error) {
	protect := uint32(windows.PAGE_READONLY)
	access := uint32(windows.FILE_MAP_READ)
	if writeable {
		protect = windows.PAGE_READWRITE
		access = windows.FILE_MAP_WRITE
	}

	hi := uint32(size >> 32)
	lo := uint32(size & 0xffffffff)
	mapping, err := windows.CreateFileMapping(fd, nil, protect, hi, lo, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("mmio: CreateFileMapping: %w", err)
	}

	addr, err := windows.MapViewOfFile(mapping, access, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, 0, fmt.Errorf("mmio: MapViewOfFile: %w", err)
	}

	region := unsafeSlice(addr, int(size))
	return region, mapping, nil
}

// ExtendSize unmaps the region, sets the underlying file length to newSize,
// then remaps over the new full length. On Windows this requires
// re-creating the file mapping kernel object, not just the view. Any
// address previously returned by AddressRW/AddressRO is invalidated.
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

	if err := f.unmapLocked(); err != nil {
		return err
	}

	if err := f.file.Truncate(newSize); err != nil {
		return fmt.Errorf("mmio: extend_size truncate: %w", err)
	}

	if newSize == 0 {
		f.size = 0
		return nil
	}

	region, mapping, err := createView(windows.Handle(f.file.Fd()), newSize, true)
	if err != nil {
		return err
	}
	f.rw = region
	f.ro = region
	f.winMapping = mapping
	f.size = newSize
	return nil
}

func (f *File) unmapLocked() error {
	if f.rw == nil && f.ro == nil {
		return nil
	}
	addr := f.ro
	if f.rw != nil {
		addr = f.rw
	}
	if len(addr) > 0 {
		if err := windows.UnmapViewOfFile(uintptrOf(addr)); err != nil {
			return fmt.Errorf("mmio: UnmapViewOfFile: %w", err)
		}
	}
	if f.winMapping != 0 {
		windows.CloseHandle(f.winMapping)
		f.winMapping = 0
	}
	f.rw, f.ro = nil, nil
	return nil
}

// Sync flushes the full mapped region to disk, then flushes file metadata.
// No-op on a read-only mapping.
func (f *File) Sync() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.writeable || f.rw == nil {
		return nil
	}
	return flushView(f, 0, uintptr(len(f.rw)))
}

// SyncRange flushes offset..offset+n of the mapped region. No-op on a
// read-only mapping.
func (f *File) SyncRange(offset, n int64) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.writeable || f.rw == nil {
		return nil
	}
	return flushView(f, uintptr(offset), uintptr(n))
}

func flushView(f *File, offset, n uintptr) error {
	base := uintptrOf(f.rw) + offset
	if err := windows.FlushViewOfFile(base, n); err != nil {
		return fmt.Errorf("mmio: FlushViewOfFile: %w", err)
	}
	if err := windows.FlushFileBuffers(windows.Handle(f.file.Fd())); err != nil {
		return fmt.Errorf("mmio: FlushFileBuffers: %w", err)
	}
	return nil
}

// Close flushes (if writeable), unmaps, and closes the underlying file
// handle and file-mapping object. Idempotent.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	var syncErr error
	if f.writeable && f.rw != nil {
		syncErr = flushView(f, 0, uintptr(len(f.rw)))
	}

	unmapErr := f.unmapLocked()
	closeErr := f.file.Close()
	f.file = nil

	if syncErr != nil {
		return syncErr
	}
	if unmapErr != nil {
		return unmapErr
	}
	if closeErr != nil {
		return fmt.Errorf("mmio: close: %w", closeErr)
	}
	return nil
}
