package queue

import "unsafe"

// Magic constants and on-disk layout, carried byte-for-byte in spirit from
// original_source/source/main/cpp/c_mmmq.cpp (index_header_t, data_header_t,
// control_header_t, index_entry_t, consumer_slot_t). Field widths are
// defined here for the Go struct layout this module actually uses; they
// satisfy spec.md's width table while resolving the original's C padding
// choices into explicit Go fields instead of implicit compiler padding.
const (
	magicIndex   uint64 = 0x1CEB00FDEADBEEF
	magicData    uint64 = 0xDA7A5E90D0D0F0D
	magicControl uint64 = 0xC017301D00DFACE

	protocolVersion uint32 = 1
	alignBytes      uint32 = 8

	flagPending uint32 = 1 << 0
	flagReady   uint32 = 1 << 1
	flagAborted uint32 = 1 << 2

	// semNameLen bounds a semaphore name's stored length (NUL-terminated).
	// spec.md documents a 52-byte minimum; this implementation affords 76
	// to keep the control header's total size a clean multiple of 64 bytes
	// (see controlHeaderSize below) with room to spare.
	semNameLen = 76

	// slotNameLen mirrors the original consumer_slot_t.name[64].
	slotNameLen = 64

	// indexGrowEntries is how many additional entries the index file gains
	// per growth event, matching spec.md §4.5 step 5 / §8's "grows the
	// index to accommodate at least 65536 more entries."
	indexGrowEntries = 65536

	// dataGrowNumerator/dataGrowDenominator implement the 10% growth
	// policy from spec.md §4.5 step 2 (new size = current * 11/10).
	dataGrowNumerator   = 11
	dataGrowDenominator = 10

	// controlAlignBytes is the 1 KiB boundary spec.md §3 pads the control
	// file up to.
	controlAlignBytes = 1024
)

// indexHeader is the index.mm header: magic, version, align, next_seq,
// entry_count. All integers are native little-endian on every platform Go
// targets for this module (amd64/arm64), matching spec.md's "all integers
// little-endian" requirement without any explicit byte-swapping.
type indexHeader struct {
	magic      uint64
	version    uint32
	align      uint32
	nextSeq    uint64
	entryCount uint64
}

const indexHeaderSize = int(unsafe.Sizeof(indexHeader{}))

// indexEntry is one 24-byte append-only index record.
type indexEntry struct {
	seq      uint64
	off8     uint32
	length   uint32
	flags    uint32
	reserved uint32
}

const indexEntrySize = int(unsafe.Sizeof(indexEntry{}))

// dataHeader is the data.mm header: magic, version, align, write_pos,
// file_size.
type dataHeader struct {
	magic    uint64
	version  uint32
	align    uint32
	writePos uint64
	fileSize uint64
}

const dataHeaderSize = int(unsafe.Sizeof(dataHeader{}))

// controlHeader is the control.mm header. Its total size (40 fixed bytes +
// 2*semNameLen) is 192 bytes with semNameLen=76, a multiple of 64 as
// spec.md §3 requires. newSemWord/regSemWord hold the new_sem and reg_sem
// counting-semaphore words directly inside this already-MAP_SHARED
// mapping, per internal/sema's shared-word design.
type controlHeader struct {
	magic               uint64
	version             uint32
	align               uint32
	maxConsumers        uint32
	reserved            uint32
	notifySeq           uint64
	newSemWord          uint32
	regSemWord          uint32
	newEntriesSemName   [semNameLen]byte
	registryLockSemName [semNameLen]byte
}

const controlHeaderSize = int(unsafe.Sizeof(controlHeader{}))

// consumerSlot is one control.mm consumer registration record.
type consumerSlot struct {
	lastUpdateNS uint64
	lastSeq      uint64
	active       uint32
	reserved     uint32
	name         [slotNameLen]byte
}

const consumerSlotSize = int(unsafe.Sizeof(consumerSlot{}))

func alignUp(x, a uint64) uint64 { return (x + a - 1) &^ (a - 1) }

func indexHeaderView(mem []byte) *indexHeader {
	return (*indexHeader)(unsafe.Pointer(&mem[0]))
}

func indexEntriesView(mem []byte) []indexEntry {
	avail := len(mem) - indexHeaderSize
	if avail < indexEntrySize {
		return nil
	}
	n := avail / indexEntrySize
	return unsafe.Slice((*indexEntry)(unsafe.Pointer(&mem[indexHeaderSize])), n)
}

func dataHeaderView(mem []byte) *dataHeader {
	return (*dataHeader)(unsafe.Pointer(&mem[0]))
}

func dataPayloadView(mem []byte) []byte {
	if len(mem) <= dataHeaderSize {
		return nil
	}
	return mem[dataHeaderSize:]
}

func controlHeaderView(mem []byte) *controlHeader {
	return (*controlHeader)(unsafe.Pointer(&mem[0]))
}

func controlSlotsView(mem []byte, maxConsumers uint32) []consumerSlot {
	avail := len(mem) - controlHeaderSize
	want := int(maxConsumers)
	if avail < want*consumerSlotSize {
		want = avail / consumerSlotSize
	}
	if want <= 0 {
		return nil
	}
	return unsafe.Slice((*consumerSlot)(unsafe.Pointer(&mem[controlHeaderSize])), want)
}

func setName(dst []byte, name string) {
	for i := range dst {
		dst[i] = 0
	}
	n := copy(dst[:len(dst)-1], name)
	dst[n] = 0
}

func getName(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	return string(src[:n])
}

func controlBytesFor(maxConsumers uint32) int64 {
	total := uint64(controlHeaderSize) + uint64(maxConsumers)*uint64(consumerSlotSize)
	return int64(alignUp(total, controlAlignBytes))
}
