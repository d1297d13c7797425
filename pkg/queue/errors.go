package queue

import "fmt"

// Code identifies the kind of failure an operation hit, replacing the
// original design's sentinel -1/false returns with a typed result per
// spec.md §7/§9's error-handling redesign flag.
type Code int

const (
	// CodeNone is the zero value: no error.
	CodeNone Code = iota
	CodeIndexOpenRW
	CodeDataOpenRW
	CodeControlOpenRW
	CodeIndexSanity
	CodeDataSanity
	CodeControlSanity
	CodeSemaphoreOpen
	CodeRegistryLock
	CodeConsumerSlotsFull
	CodeIndexExtend
	CodeDataExtend
	CodeNoMsgAvailable
	CodeTimedOut
)

var codeNames = map[Code]string{
	CodeNone:              "none",
	CodeIndexOpenRW:       "index_open_rw",
	CodeDataOpenRW:        "data_open_rw",
	CodeControlOpenRW:     "control_open_rw",
	CodeIndexSanity:       "index_sanity",
	CodeDataSanity:        "data_sanity",
	CodeControlSanity:     "control_sanity",
	CodeSemaphoreOpen:     "semaphore_open",
	CodeRegistryLock:      "registry_lock",
	CodeConsumerSlotsFull: "consumer_slots_full",
	CodeIndexExtend:       "index_extend",
	CodeDataExtend:        "data_extend",
	CodeNoMsgAvailable:    "no_msg_available",
	CodeTimedOut:          "timedout",
}

// String renders the code's canonical name, used by Error's message.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error wraps a Code with the operation that produced it and, when
// available, the underlying cause.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("queue: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("queue: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrNoMsgAvailable)-style comparisons against a
// bare Code-carrying sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newErr(code Code, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Err: cause}
}

// Sentinels for errors.Is comparisons against expected, non-exceptional
// outcomes (spec.md §7: NO_MSG_AVAILABLE and TIMEDOUT are "normal flow").
var (
	ErrNoMsgAvailable   = &Error{Code: CodeNoMsgAvailable}
	ErrTimedOut         = &Error{Code: CodeTimedOut}
	ErrConsumerSlotFull = &Error{Code: CodeConsumerSlotsFull}
)
