package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/mmqueue/internal/mmio"
	"github.com/srediag/mmqueue/internal/sema"
)

// AttachConsumer opens index/data read-only and control read-write,
// validates all three headers' magic/version/align fields, and opens the
// two named semaphores the control header records, per spec.md §4.4.
func AttachConsumer(paths Paths, maxConsumers uint32, opts ...Option) (*Queue, error) {
	q := newQueue(opts)
	q.role = RoleConsumer
	q.paths = paths
	q.maxConsumers = maxConsumers

	idx, err := mmio.OpenRO(paths.IndexPath)
	if err != nil {
		return nil, newErr(CodeIndexOpenRW, "attach_consumer", err)
	}
	q.index = idx

	data, err := mmio.OpenRO(paths.DataPath)
	if err != nil {
		q.index.Close()
		return nil, newErr(CodeDataOpenRW, "attach_consumer", err)
	}
	q.data = data

	control, err := mmio.OpenRW(paths.ControlPath)
	if err != nil {
		q.index.Close()
		q.data.Close()
		return nil, newErr(CodeControlOpenRW, "attach_consumer", err)
	}
	q.control = control

	if err := q.validateSanity(); err != nil {
		q.Close()
		return nil, err
	}
	// The control header's own max_consumers, written by the producer, is
	// the source of truth for the slot table's size (spec.md §3/§4.4): a
	// caller-supplied value that disagrees with it would scan a different
	// number of slots than the producer allocated.
	q.maxConsumers = q.ch().maxConsumers

	ch := q.ch()
	newName := getName(ch.newEntriesSemName[:])
	regName := getName(ch.registryLockSemName[:])
	if newName == "" || regName == "" {
		q.Close()
		return nil, newErr(CodeSemaphoreOpen, "attach_consumer", fmt.Errorf("control header has empty semaphore name"))
	}
	q.newSem = sema.Open(&ch.newSemWord, newName)
	q.regSem = sema.Open(&ch.regSemWord, regName)

	q.log.Infof("consumer attached index=%s data=%s control=%s", paths.IndexPath, paths.DataPath, paths.ControlPath)
	return q, nil
}

// CheckSanity re-validates the three mapped files' magic/version/align
// fields, satisfying internal/health.SanityChecker for the CLI's
// --health-addr readiness probe.
func (q *Queue) CheckSanity() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.validateSanity()
}

func (q *Queue) validateSanity() error {
	ih := q.ihRO()
	if ih.magic != magicIndex || ih.version != protocolVersion || ih.align != alignBytes {
		return newErr(CodeIndexSanity, "attach_consumer", fmt.Errorf("index header sanity check failed"))
	}
	dh := q.dhRO()
	if dh.magic != magicData || dh.version != protocolVersion || dh.align != alignBytes {
		return newErr(CodeDataSanity, "attach_consumer", fmt.Errorf("data header sanity check failed"))
	}
	ch := q.ch()
	if ch.magic != magicControl || ch.version != protocolVersion || ch.align != alignBytes {
		return newErr(CodeControlSanity, "attach_consumer", fmt.Errorf("control header sanity check failed"))
	}
	return nil
}

// AttachConsumerWithBackoff retries AttachConsumer while the producer
// hasn't created the files/semaphores yet, per SPEC_FULL.md §4.13. b is
// the retry policy (e.g. backoff.NewExponentialBackOff()); ctx bounds the
// overall attempt.
func AttachConsumerWithBackoff(ctx context.Context, paths Paths, maxConsumers uint32, b backoff.BackOff, opts ...Option) (*Queue, error) {
	var q *Queue
	op := func() error {
		var err error
		q, err = AttachConsumer(paths, maxConsumers, opts...)
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return q, nil
}

// RegisterConsumer claims (or reclaims) a control-file slot for name,
// starting at start_seq if a fresh slot is installed, per spec.md §4.4.
// Safe to call more than once with the same name: the existing slot is
// reused and its last_seq left untouched.
func (q *Queue) RegisterConsumer(name string, startSeq uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.role != RoleConsumer {
		return newErr(CodeControlOpenRW, "register_consumer", fmt.Errorf("handle is not a consumer"))
	}
	if err := q.regSem.Wait(context.Background()); err != nil {
		return newErr(CodeRegistryLock, "register_consumer", err)
	}
	defer q.regSem.Post()

	slots := q.slots()
	for i := range slots {
		s := &slots[i]
		if s.active == 1 && getName(s.name[:]) == name {
			q.slotIndex = int32(i)
			q.log.Debugf("register_consumer: reused slot %d for %q", i, name)
			return nil
		}
	}
	for i := range slots {
		s := &slots[i]
		if s.active == 0 {
			s.active = 1
			s.lastSeq = startSeq
			s.lastUpdateNS = uint64(time.Now().UnixNano())
			setName(s.name[:], name)
			q.slotIndex = int32(i)
			q.log.Debugf("register_consumer: installed slot %d for %q at seq %d", i, name, startSeq)
			return nil
		}
	}
	return ErrConsumerSlotFull
}

// Drain returns the next available message for this consumer's registered
// slot, or ErrNoMsgAvailable if none is ready yet, per spec.md §4.6.
func (q *Queue) Drain() ([]byte, error) {
	_, span := q.mx.StartSpan(context.Background(), "mmqueue.Drain")
	defer span.End()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.role != RoleConsumer {
		return nil, newErr(CodeDataOpenRW, "drain", fmt.Errorf("handle is not a consumer"))
	}
	if q.slotIndex < 0 {
		return nil, newErr(CodeControlOpenRW, "drain", fmt.Errorf("consumer has not registered a slot"))
	}

	ih := q.ihRO()
	nseq := atomic.LoadUint64(&ih.nextSeq)

	entries := indexEntriesView(q.index.AddressRO())
	// The producer may have grown index/data past this consumer's own
	// mapping since attach (DESIGN.md's re-attach open question): clamp
	// nseq to what our fixed-length view actually covers so a slot the
	// producer has already written beyond our mapping reads as not yet
	// available instead of panicking, per spec.md §9's "miss until
	// re-attach" resolution.
	if nseq > uint64(len(entries)) {
		nseq = uint64(len(entries))
	}

	slots := q.slots()
	slot := &slots[q.slotIndex]

	if slot.lastSeq >= nseq {
		return nil, ErrNoMsgAvailable
	}

	e := &entries[slot.lastSeq]
	if e.flags&flagReady == 0 {
		// Safety net per spec.md §4.6: Publish sets READY only after it
		// advances next_seq, so a Drain that loads nseq between those two
		// writes sees the entry still PENDING. The slot's cursor is not
		// advanced, so the next Drain retries the same sequence.
		return nil, ErrNoMsgAvailable
	}

	payload := dataPayloadView(q.data.AddressRO())
	off := uint64(e.off8) << 3
	end := off + uint64(e.length)
	if off > uint64(len(payload)) || end > uint64(len(payload)) {
		// Same growth race as above, on the data side: the entry points
		// past our own mapped payload region.
		return nil, ErrNoMsgAvailable
	}
	msg := payload[off:end]

	slot.lastSeq++
	slot.lastUpdateNS = uint64(time.Now().UnixNano())

	q.mx.IncDrained()
	return msg, nil
}
