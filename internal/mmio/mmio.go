// Package mmio implements the mapped-file primitive: a filesystem-backed,
// shared, byte-addressable mapping of an entire file, with the ability to
// create a file of an exact initial size and to extend it in place while
// preserving its contents.
//
// Growth re-maps the file. Any byte slice previously returned by AddressRW
// or AddressRO is invalidated the moment ExtendSize returns; callers must
// re-fetch the address before further access.
package mmio

import (
	"errors"
	"os"
	"sync"
)

// ErrNotWriteable is returned by operations that require a read-write
// mapping when the file was opened or created read-only.
var ErrNotWriteable = errors.New("mmio: mapped file is not writeable")

// ErrClosed is returned by operations on a File that has already been
// closed.
var ErrClosed = errors.New("mmio: mapped file is closed")

// File owns one open file handle and one shared mapping over its entire
// length. A File is not safe for concurrent ExtendSize/Close calls from
// multiple goroutines; the queue protocol built on top of it assigns
// exactly one writer to each of the three files it owns.
type File struct {
	path      string
	file      *os.File
	writeable bool

	mu   sync.RWMutex
	size int64
	rw   []byte
	ro   []byte

	// winMapping holds the Windows CreateFileMapping handle backing the
	// current view; unused on platforms mapped directly with mmap.
	winMapping platformHandle
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Path returns the filesystem path this File was opened or created from.
func (f *File) Path() string { return f.path }

// IsWriteable reports whether this mapping was opened/created read-write.
func (f *File) IsWriteable() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.writeable
}

// AddressRW returns the current read-write view of the mapped region, or
// nil if the file is read-only or closed. The returned slice is invalidated
// by the next successful ExtendSize or by Close.
func (f *File) AddressRW() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rw
}

// AddressRO returns the current read-only view of the mapped region, or nil
// if the file is closed. Valid for both read-only and read-write mappings.
func (f *File) AddressRO() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.ro != nil {
		return f.ro
	}
	return f.rw
}

// Size returns the current mapped length in bytes: the file's length when
// this File mapped it or last extended it. Growth of the same file through
// another File or process is not reflected here.
func (f *File) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}
