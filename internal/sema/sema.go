// Package sema implements the queue's "named kernel semaphore" abstraction
// without cgo.
//
// The original mmmq design targets POSIX sem_open (a process-wide object
// identified by a leading-slash name) and, on Windows, a named kernel event.
// Go has no portable, cgo-free binding for either. Because every process
// attached to the queue already holds the control file mapped MAP_SHARED,
// the counting word a semaphore needs can simply
// live inside that already-shared region instead of a separate OS object —
// the control header's semaphore-name strings remain the contract (spec's
// consumers validate them on attach), but the wait/post mechanism operates
// directly on a word inside the mapping.
//
// Blocking is backed by the Linux futex syscall (see sema_linux.go),
// grounded the same way markrussinovich-grpc-go-shmem's shm_futex_linux.go
// signals waiters on a shared memory word. Other platforms fall back to
// the same busy-poll-with-sleep-slice emulation the queue protocol itself
// sanctions for wait_timeout when sem_timedwait is unavailable.
package sema

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTimedOut is returned by WaitTimeout when the deadline elapses before a
// post is observed.
var ErrTimedOut = errors.New("sema: wait timed out")

// pollSlice is the longest single park in Wait and WaitTimeout, so both
// re-check their condition (and Wait its context) at least this often, and
// the non-Linux backend's sleep granularity, matching spec.md's documented
// 500 microsecond slice for the emulated timed wait.
const pollSlice = 500 * time.Microsecond

// Semaphore is a counting semaphore backed by a single uint32 word living
// inside a shared memory mapping. Multiple processes holding the same
// mapping and binding a Semaphore to the same address observe the same
// counter.
type Semaphore struct {
	word *uint32
	name string
}

// Init binds a Semaphore to addr and sets its initial value. Called once by
// the producer when it owns exclusive creation rights over the control
// file (mirrors sem_open(O_CREAT|O_EXCL, initial) in the original design).
func Init(addr *uint32, name string, initial uint32) *Semaphore {
	atomic.StoreUint32(addr, initial)
	return &Semaphore{word: addr, name: name}
}

// Open binds a Semaphore to an address whose value was already initialized
// by a producer (mirrors sem_open(name, 0) for an existing semaphore).
func Open(addr *uint32, name string) *Semaphore {
	return &Semaphore{word: addr, name: name}
}

// Name returns the semaphore's logical name as stored in the control file.
func (s *Semaphore) Name() string { return s.name }

// Value returns the current count, for diagnostics and tests. Not part of
// the wait/post protocol itself.
func (s *Semaphore) Value() uint32 { return atomic.LoadUint32(s.word) }

// Post increments the count and wakes at most one blocked waiter, matching
// counting-semaphore semantics: N posts cumulatively wake N waiters.
func (s *Semaphore) Post() {
	atomic.AddUint32(s.word, 1)
	wake(s.word, 1)
}

// TryWait attempts to decrement the count without blocking. Returns true if
// it succeeded.
func (s *Semaphore) TryWait() bool {
	for {
		v := atomic.LoadUint32(s.word)
		if v == 0 {
			return false
		}
		if atomic.CompareAndSwapUint32(s.word, v, v-1) {
			return true
		}
	}
}

// Wait blocks until the count is positive, then decrements it. Returns an
// error only if ctx is canceled first (the original's "returns false on
// interruption" maps to ctx.Err() here).
func (s *Semaphore) Wait(ctx context.Context) error {
	for {
		if s.TryWait() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		park(s.word, 0, pollSlice)
	}
}

// WaitTimeout blocks until the count is positive (returning true) or until
// timeout elapses (returning false), polling in pollSlice increments. This
// is the queue's wait_timeout: a portable emulation for platforms lacking
// sem_timedwait, used uniformly here rather than only as a fallback.
func (s *Semaphore) WaitTimeout(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if s.TryWait() {
			return true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, ErrTimedOut
		}
		slice := pollSlice
		if remaining < slice {
			slice = remaining
		}
		park(s.word, 0, slice)
	}
}
