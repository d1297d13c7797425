//go:build !linux

package sema

import "time"

// park on non-Linux platforms has no shared-memory futex equivalent without
// cgo, so it busy-polls in pollSlice increments — the same discipline
// spec.md's wait_timeout already sanctions for platforms without
// sem_timedwait, applied uniformly here.
func park(addr *uint32, expect uint32, d time.Duration) {
	if d <= 0 || d > pollSlice {
		time.Sleep(pollSlice)
		return
	}
	time.Sleep(d)
}

// wake is a no-op: waiters on this platform are already polling on their
// own schedule and will observe the posted value on their next wake-up.
func wake(addr *uint32, n int) {}
