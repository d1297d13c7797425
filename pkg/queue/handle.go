// Package queue implements the L2 message-queue protocol: the layout of
// the three shared files (index, data, control), the publish two-phase
// commit, consumer drain/registration, and the wait-for-new discipline
// built on the internal/sema named semaphores.
package queue

import (
	"sync"

	"github.com/srediag/mmqueue/internal/logger"
	"github.com/srediag/mmqueue/internal/mmio"
	"github.com/srediag/mmqueue/internal/sema"
	"github.com/srediag/mmqueue/pkg/alloc"
)

// Role distinguishes the two handle shapes a Queue can take; fixed for the
// handle's lifetime after Init/Attach.
type Role int

const (
	RoleProducer Role = iota
	RoleConsumer
)

func (r Role) String() string {
	if r == RoleProducer {
		return "producer"
	}
	return "consumer"
}

// Config configures a fresh producer's files. IndexInitialBytes and
// DataInitialBytes are ignored (the files' existing headers govern instead)
// when the producer re-opens files that already exist, per spec.md §4.3
// step 1. MaxConsumers is always written into the re-initialized control
// header; an existing control file keeps its current length.
type Config struct {
	IndexInitialBytes int64
	DataInitialBytes  int64
	MaxConsumers      uint32
}

// Paths names the three backing files and the two semaphores' logical
// names.
type Paths struct {
	IndexPath   string
	DataPath    string
	ControlPath string
	NewSemName  string
	RegSemName  string
}

// Queue is a handle owning three mapped files and two named semaphores, in
// either the producer or the consumer role. The protocol is single-producer
// by design: only one producer handle may publish to a set of files. Within
// one handle, Publish and Drain calls are serialized with a mutex, so a
// handle can safely be shared by a process's goroutines if desired.
type Queue struct {
	role  Role
	paths Paths

	index   *mmio.File
	data    *mmio.File
	control *mmio.File

	newSem *sema.Semaphore
	regSem *sema.Semaphore

	alloc alloc.Allocator
	log   *logger.Logger
	mx    *Metrics

	mu sync.Mutex

	maxConsumers uint32
	slotIndex    int32 // consumer-only, -1 until Register succeeds
}

// Option configures optional collaborators on a Queue.
type Option func(*Queue)

// WithAllocator installs a as the handle's allocator. The publish and drain
// paths are zero-copy and do not allocate through it.
func WithAllocator(a alloc.Allocator) Option {
	return func(q *Queue) { q.alloc = a }
}

// WithLogger installs l in place of the package default logger.
func WithLogger(l *logger.Logger) Option {
	return func(q *Queue) { q.log = l }
}

// WithMetrics installs a metrics recorder; nil (the default) disables
// instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(q *Queue) { q.mx = m }
}

func newQueue(opts []Option) *Queue {
	q := &Queue{
		alloc:     alloc.Heap{},
		log:       logger.Default,
		slotIndex: -1,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Role reports whether this handle is acting as producer or consumer.
func (q *Queue) Role() Role { return q.role }

// Close unmaps and closes all three mapped files and is safe to call more
// than once. The semaphores live inside the control mapping, so there is
// no separate semaphore handle to close.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if q.index != nil {
		record(q.index.Close())
	}
	if q.data != nil {
		record(q.data.Close())
	}
	if q.control != nil {
		record(q.control.Close())
	}
	return firstErr
}

func (q *Queue) ih() *indexHeader     { return indexHeaderView(q.index.AddressRW()) }
func (q *Queue) dh() *dataHeader      { return dataHeaderView(q.data.AddressRW()) }
func (q *Queue) ch() *controlHeader   { return controlHeaderView(q.control.AddressRW()) }
func (q *Queue) ihRO() *indexHeader   { return indexHeaderView(q.index.AddressRO()) }
func (q *Queue) dhRO() *dataHeader    { return dataHeaderView(q.data.AddressRO()) }
func (q *Queue) slots() []consumerSlot {
	return controlSlotsView(q.control.AddressRW(), q.maxConsumers)
}
