// Package diag reports process and mapped-file footprint diagnostics for
// the CLI's stat subcommand, per SPEC_FULL.md §4.12.
package diag

import (
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// FileSizes names the three mapped files' current on-disk sizes, as
// reported by the caller (pkg/queue.Queue has no diag dependency of its
// own, so callers pass sizes in rather than this package importing
// pkg/queue).
type FileSizes struct {
	IndexBytes   int64
	DataBytes    int64
	ControlBytes int64
}

// Report is the snapshot cmd/mmqueue stat prints.
type Report struct {
	PID            int32
	RSSBytes       uint64
	SystemTotalMem uint64
	SystemUsedMem  uint64
	Files          FileSizes
}

// Collect gathers the current process's RSS, host memory totals, and the
// supplied mapped-file sizes into one Report.
func Collect(files FileSizes) (*Report, error) {
	pid := int32(os.Getpid())
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return nil, err
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	return &Report{
		PID:            pid,
		RSSBytes:       memInfo.RSS,
		SystemTotalMem: vm.Total,
		SystemUsedMem:  vm.Used,
		Files:          files,
	}, nil
}
