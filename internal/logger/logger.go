// Package logger is the leveled, colorized logger used across mmqueue,
// adapted from the teacher repo's plugin/debug.go: same level names, same
// SHMIPC_LOG_LEVEL/SHMIPC_DEBUG_MODE env-var overrides (renamed to the
// MMQUEUE_ prefix here), generalized from a package-global into an
// injectable value so a *Queue and the CLI can each hold their own (or
// share the package Default).
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

const (
	LevelTrace = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNoPrint
)

var (
	magenta = string([]byte{27, 91, 57, 53, 109})
	green   = string([]byte{27, 91, 57, 50, 109})
	blue    = string([]byte{27, 91, 57, 52, 109})
	yellow  = string([]byte{27, 91, 57, 51, 109})
	red     = string([]byte{27, 91, 57, 49, 109})
	reset   = string([]byte{27, 91, 48, 109})

	colors = []string{magenta, green, blue, yellow, red}

	levelName = []string{"Trace", "Debug", "Info", "Warn", "Error"}
)

// Logger is a leveled writer with a caller-location prefix. The zero value
// is not usable; construct with New.
type Logger struct {
	name      string
	out       io.Writer
	level     int
	callDepth int
}

// Default is the package-level logger, matching the teacher's
// package-global internalLogger convenience: drop-in usable without
// constructing one.
var Default = New("mmqueue", os.Stdout)

func init() {
	Default.level = LevelWarn
	if v := os.Getenv("MMQUEUE_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n <= LevelNoPrint {
			Default.level = n
		}
	}
}

// DebugMode reports whether MMQUEUE_DEBUG_MODE is set, mirroring the
// teacher's debugMode flag used to gate extra diagnostic output.
func DebugMode() bool { return os.Getenv("MMQUEUE_DEBUG_MODE") != "" }

// New constructs a Logger writing to out (os.Stdout if nil) at LevelWarn.
func New(name string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{name: name, out: out, level: LevelWarn, callDepth: 3}
}

// SetLevel changes the minimum level this Logger emits.
func (l *Logger) SetLevel(level int) {
	if level <= LevelNoPrint {
		l.level = level
	}
}

func (l *Logger) Errorf(format string, a ...interface{}) { l.logf(LevelError, format, a...) }
func (l *Logger) Warnf(format string, a ...interface{})  { l.logf(LevelWarn, format, a...) }
func (l *Logger) Infof(format string, a ...interface{})  { l.logf(LevelInfo, format, a...) }
func (l *Logger) Debugf(format string, a ...interface{}) { l.logf(LevelDebug, format, a...) }
func (l *Logger) Tracef(format string, a ...interface{}) { l.logf(LevelTrace, format, a...) }

func (l *Logger) logf(level int, format string, a ...interface{}) {
	if l.level > level {
		return
	}
	if _, err := fmt.Fprintf(l.out, l.prefix(level)+format+reset+"\n", a...); err != nil {
		fmt.Fprintf(os.Stderr, "logger: write failed: %v\n", err)
	}
}

func (l *Logger) prefix(level int) string {
	var buffer [96]byte
	buf := bytes.NewBuffer(buffer[:0])
	buf.WriteString(colors[level])
	buf.WriteString(levelName[level])
	buf.WriteByte(' ')
	buf.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	buf.WriteByte(' ')
	buf.WriteString(l.location())
	buf.WriteByte(' ')
	buf.WriteString(l.name)
	buf.WriteByte(' ')
	return buf.String()
}

func (l *Logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file = "???"
		line = 0
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
