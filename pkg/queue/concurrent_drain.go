package queue

import (
	"errors"

	"github.com/panjf2000/ants/v2"
)

// ConcurrentDrainer wraps a consumer *Queue with a bounded goroutine pool
// so a slow handler doesn't stall the next Drain call, per SPEC_FULL.md
// §4.17. Submission order equals sequence order; the pool only
// parallelizes handler execution, never reordering delivery.
type ConcurrentDrainer struct {
	q    *Queue
	pool *ants.Pool
}

// NewConcurrentDrainer builds a drainer over q with a pool of size
// poolSize (ants.DefaultAntsPoolSize if poolSize <= 0).
func NewConcurrentDrainer(q *Queue, poolSize int) (*ConcurrentDrainer, error) {
	if poolSize <= 0 {
		poolSize = ants.DefaultAntsPoolSize
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &ConcurrentDrainer{q: q, pool: pool}, nil
}

// DrainAll drains every currently available message in sequence order and
// dispatches handler(msg) onto the pool for each, returning once every
// message available at call time has been submitted. It does not wait for
// handlers to finish.
func (d *ConcurrentDrainer) DrainAll(handler func([]byte)) (int, error) {
	n := 0
	for {
		msg, err := d.q.Drain()
		if err != nil {
			if errors.Is(err, ErrNoMsgAvailable) {
				return n, nil
			}
			return n, err
		}
		buf := make([]byte, len(msg))
		copy(buf, msg)
		if err := d.pool.Submit(func() { handler(buf) }); err != nil {
			return n, err
		}
		n++
	}
}

// Release closes the pool and returns without waiting: handlers already
// running finish on their own goroutines after Release returns.
func (d *ConcurrentDrainer) Release() {
	d.pool.Release()
}
