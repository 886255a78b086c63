// Package logger provides the leveled console logger used for verbose
// diagnostics. Matches are never written through it; it writes to stderr
// so that stdout carries only search output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Log level constants for filtering
const (
	levelDebug int = iota
	levelInfo
	levelWarn
	levelError
)

// ConsoleLogger writes "[LEVEL] message" lines to a writer. It is safe for
// concurrent use. Color output is enabled only when the writer itself is a
// terminal and NO_COLOR is unset.
type ConsoleLogger struct {
	writer      io.Writer
	level       int
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger. A nil writer discards all
// messages. logLevel is one of debug, info, warn, error (case-insensitive);
// anything else falls back to info.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		level:       parseLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

func isTerminal(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// SetColor overrides terminal detection, e.g. for --no-color.
func (cl *ConsoleLogger) SetColor(enabled bool) {
	cl.mutex.Lock()
	cl.colorOutput = enabled && cl.writer != nil
	cl.mutex.Unlock()
}

// DebugEnabled reports whether debug messages are written.
func (cl *ConsoleLogger) DebugEnabled() bool {
	return cl.writer != nil && cl.level <= levelDebug
}

// Debugf logs a debug-level message.
func (cl *ConsoleLogger) Debugf(format string, args ...any) {
	cl.logf(levelDebug, "DEBUG", format, args...)
}

// Infof logs an info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...any) {
	cl.logf(levelInfo, "INFO", format, args...)
}

// Warnf logs a warning.
func (cl *ConsoleLogger) Warnf(format string, args ...any) {
	cl.logf(levelWarn, "WARN", format, args...)
}

// Errorf logs an error-level message.
func (cl *ConsoleLogger) Errorf(format string, args ...any) {
	cl.logf(levelError, "ERROR", format, args...)
}

func (cl *ConsoleLogger) logf(level int, name, format string, args ...any) {
	if cl.writer == nil || level < cl.level {
		return
	}
	msg := fmt.Sprintf(format, args...)

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	tag := name
	if cl.colorOutput {
		c := levelColor(name)
		// the package default follows stdout, not this writer
		c.EnableColor()
		tag = c.Sprint(name)
	}
	_, _ = fmt.Fprintf(cl.writer, "[%s] %s\n", tag, msg)
}

func levelColor(name string) *color.Color {
	switch name {
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
