package queue

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/srediag/mmqueue/internal/mmio"
	"github.com/srediag/mmqueue/internal/sema"
)

// InitProducer opens or creates the three backing files and the two named
// semaphores, per spec.md §4.3. If index/data already exist they are
// opened and assumed valid (no re-init); the control file is always
// unconditionally re-zeroed and its header rewritten, which discards any
// prior consumer registrations across producer restarts.
func InitProducer(cfg Config, paths Paths, opts ...Option) (*Queue, error) {
	if cfg.IndexInitialBytes < int64(indexHeaderSize) {
		return nil, newErr(CodeIndexOpenRW, "init_producer", fmt.Errorf("index_initial_bytes %d smaller than header %d", cfg.IndexInitialBytes, indexHeaderSize))
	}
	if cfg.DataInitialBytes < int64(dataHeaderSize) {
		return nil, newErr(CodeDataOpenRW, "init_producer", fmt.Errorf("data_initial_bytes %d smaller than header %d", cfg.DataInitialBytes, dataHeaderSize))
	}

	q := newQueue(opts)
	q.role = RoleProducer
	q.paths = paths
	q.maxConsumers = cfg.MaxConsumers

	idx, err := openOrCreateIndex(paths.IndexPath, cfg.IndexInitialBytes)
	if err != nil {
		return nil, newErr(CodeIndexOpenRW, "init_producer", err)
	}
	q.index = idx

	data, err := openOrCreateData(paths.DataPath, cfg.DataInitialBytes)
	if err != nil {
		q.index.Close()
		return nil, newErr(CodeDataOpenRW, "init_producer", err)
	}
	q.data = data

	controlBytes := controlBytesFor(cfg.MaxConsumers)
	control, err := openOrCreateControl(paths.ControlPath, controlBytes)
	if err != nil {
		q.index.Close()
		q.data.Close()
		return nil, newErr(CodeControlOpenRW, "init_producer", err)
	}
	q.control = control

	// Unconditionally zero and re-initialize the control file: see
	// spec.md §4.3 step 3 and §9's open question about this discarding
	// prior registrations across producer restarts.
	mem := q.control.AddressRW()
	for i := range mem {
		mem[i] = 0
	}
	ch := q.ch()
	ch.magic = magicControl
	ch.version = protocolVersion
	ch.align = alignBytes
	ch.maxConsumers = cfg.MaxConsumers
	ch.notifySeq = 0
	setName(ch.newEntriesSemName[:], paths.NewSemName)
	setName(ch.registryLockSemName[:], paths.RegSemName)

	q.newSem = sema.Init(&ch.newSemWord, paths.NewSemName, 0)
	q.regSem = sema.Init(&ch.regSemWord, paths.RegSemName, 1)

	q.log.Infof("producer initialized index=%s data=%s control=%s max_consumers=%d", paths.IndexPath, paths.DataPath, paths.ControlPath, cfg.MaxConsumers)
	return q, nil
}

func openOrCreateIndex(path string, initialBytes int64) (*mmio.File, error) {
	if mmio.Exists(path) {
		f, err := mmio.OpenRW(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	f, err := mmio.CreateRW(path, initialBytes)
	if err != nil {
		return nil, err
	}
	ih := indexHeaderView(f.AddressRW())
	ih.magic = magicIndex
	ih.version = protocolVersion
	ih.align = alignBytes
	ih.nextSeq = 0
	ih.entryCount = 0
	return f, nil
}

func openOrCreateData(path string, initialBytes int64) (*mmio.File, error) {
	if mmio.Exists(path) {
		f, err := mmio.OpenRW(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	f, err := mmio.CreateRW(path, initialBytes)
	if err != nil {
		return nil, err
	}
	dh := dataHeaderView(f.AddressRW())
	dh.magic = magicData
	dh.version = protocolVersion
	dh.align = alignBytes
	dh.writePos = 0
	dh.fileSize = uint64(f.Size()) - uint64(dataHeaderSize)
	return f, nil
}

func openOrCreateControl(path string, bytes int64) (*mmio.File, error) {
	if mmio.Exists(path) {
		return mmio.OpenRW(path)
	}
	return mmio.CreateRW(path, bytes)
}

// Publish appends one message to the queue: data file grows geometrically
// (x1.1) on overflow, the index file grows in indexGrowEntries-entry
// chunks, and the commit order (write entry fields, advance next_seq, mark
// READY, bump notify_seq, post new_sem) establishes the happens-before
// relation spec.md §4.5's ordering note requires. Only the producer handle
// may call Publish; calls on one handle are serialized by its mutex.
func (q *Queue) Publish(msg []byte) error {
	_, span := q.mx.StartSpan(context.Background(), "mmqueue.Publish")
	defer span.End()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.role != RoleProducer {
		return newErr(CodeDataOpenRW, "publish", fmt.Errorf("handle is not a producer"))
	}

	dh := q.dh()
	pos := alignUp(dh.writePos, uint64(alignBytes))
	spanBytes := alignUp(uint64(len(msg)), uint64(alignBytes))
	end := pos + spanBytes

	if end > dh.fileSize {
		newSize := q.data.Size() * dataGrowNumerator / dataGrowDenominator
		if newSize < int64(dataHeaderSize)+int64(end) {
			newSize = int64(dataHeaderSize) + int64(end)
		}
		if err := q.data.ExtendSize(newSize); err != nil {
			return newErr(CodeDataExtend, "publish", err)
		}
		dh = q.dh()
		dh.fileSize = uint64(q.data.Size()) - uint64(dataHeaderSize)
		q.mx.IncDataGrowth()
	}

	payload := dataPayloadView(q.data.AddressRW())
	copy(payload[pos:pos+uint64(len(msg))], msg)
	if spanBytes > uint64(len(msg)) {
		tail := payload[pos+uint64(len(msg)) : pos+spanBytes]
		for i := range tail {
			tail[i] = 0
		}
	}
	dh.writePos = end

	ih := q.ih()
	seq := ih.nextSeq
	needBytes := int64(indexHeaderSize) + int64(seq+1)*int64(indexEntrySize)
	if needBytes > q.index.Size() {
		goalEntries := seq + indexGrowEntries
		newSize := int64(indexHeaderSize) + int64(goalEntries)*int64(indexEntrySize)
		if err := q.index.ExtendSize(newSize); err != nil {
			return newErr(CodeIndexExtend, "publish", err)
		}
		ih = q.ih()
		q.mx.IncIndexGrowth()
	}

	entries := indexEntriesView(q.index.AddressRW())
	e := &entries[seq]
	e.seq = seq
	e.off8 = uint32(pos >> 3)
	e.length = uint32(len(msg))
	e.flags = flagPending

	// Release-store next_seq: every consumer that observes this value via
	// an acquire-load is guaranteed to see the entry fields and flags
	// write above. entry_count trails next_seq by the same write.
	atomic.StoreUint64(&ih.nextSeq, seq+1)
	ih.entryCount = seq + 1

	e.flags = flagReady

	ch := q.ch()
	ch.notifySeq++
	q.newSem.Post()

	q.mx.IncPublished(len(msg))
	q.log.Debugf("published seq=%d len=%d pos=%d", seq, len(msg), pos)
	return nil
}
