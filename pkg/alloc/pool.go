package alloc

import "github.com/valyala/bytebufferpool"

// PooledAllocator backs Allocate/Deallocate with a github.com/valyala/bytebufferpool
// pool, avoiding per-message GC churn for high-rate producers/consumers.
// Allocate returns a slice whose backing array came from a pooled
// *bytebufferpool.ByteBuffer; Deallocate must be called with the exact
// slice returned by Allocate (not a sub-slice) to be pooled back correctly.
type PooledAllocator struct {
	pool *bytebufferpool.Pool
}

// NewPooledAllocator constructs a PooledAllocator with its own pool.
func NewPooledAllocator() *PooledAllocator {
	return &PooledAllocator{pool: &bytebufferpool.Pool{}}
}

func (a *PooledAllocator) Allocate(n int, alignment int) []byte {
	buf := a.pool.Get()
	buf.B = append(buf.B[:0], make([]byte, padForAlignment(n, alignment))...)
	return buf.B
}

func (a *PooledAllocator) Deallocate(b []byte) {
	buf := &bytebufferpool.ByteBuffer{B: b}
	a.pool.Put(buf)
}
