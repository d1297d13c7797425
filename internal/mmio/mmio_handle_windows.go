//go:build windows

package mmio

import "golang.org/x/sys/windows"

// platformHandle tracks the Windows CreateFileMapping object backing the
// current view; MapViewOfFile views are only valid while it stays open.
type platformHandle = windows.Handle
