package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/srediag/mmqueue/internal/diag"
)

// runStat reports process RSS, host memory, and the three mapped files'
// current on-disk sizes, per SPEC_FULL.md §4.12.
func runStat(args []string) error {
	fs := flag.NewFlagSet("stat", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	files := diag.FileSizes{
		IndexBytes:   fileSize(cfg.IndexPath),
		DataBytes:    fileSize(cfg.DataPath),
		ControlBytes: fileSize(cfg.ControlPath),
	}
	report, err := diag.Collect(files)
	if err != nil {
		return err
	}

	fmt.Printf("pid=%d rss=%d sys_total=%d sys_used=%d index=%d data=%d control=%d\n",
		report.PID, report.RSSBytes, report.SystemTotalMem, report.SystemUsedMem,
		report.Files.IndexBytes, report.Files.DataBytes, report.Files.ControlBytes)
	return nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
