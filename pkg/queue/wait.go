package queue

import (
	"context"
	"errors"
	"time"

	"github.com/srediag/mmqueue/internal/sema"
)

// Wait blocks until the producer posts new_sem at least once, or ctx is
// cancelled, per spec.md §4.7.
func (q *Queue) Wait(ctx context.Context) error {
	start := time.Now()
	err := q.newSem.Wait(ctx)
	q.mx.ObserveWaitSeconds(time.Since(start).Seconds())
	return err
}

// WaitTimeout blocks until new_sem is posted or timeout elapses, returning
// ErrTimedOut in the latter case, per spec.md §4.7's polled emulation.
func (q *Queue) WaitTimeout(timeout time.Duration) error {
	start := time.Now()
	ok, err := q.newSem.WaitTimeout(timeout)
	q.mx.ObserveWaitSeconds(time.Since(start).Seconds())
	if errors.Is(err, sema.ErrTimedOut) || !ok {
		return ErrTimedOut
	}
	if err != nil {
		return err
	}
	return nil
}
