// Package logging provides the small stderr logger used across nsm,
// plus helpers that keep secret values out of log output.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger writes leveled, optionally colored messages to stderr. Command
// output (secret values, listings) goes to stdout and never through the
// logger.
type Logger struct {
	out     io.Writer
	debug   bool
	noColor bool
}

// New creates a logger writing to stderr.
func New(debug, noColor bool) *Logger {
	return &Logger{out: os.Stderr, debug: debug, noColor: noColor}
}

// NewWithWriter creates a logger with a custom destination, for tests.
func NewWithWriter(w io.Writer, debug, noColor bool) *Logger {
	return &Logger{out: w, debug: debug, noColor: noColor}
}

// Info logs a confirmation message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m✓\033[0m", "✓", format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m⚠\033[0m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args...)
}

// Debug logs a message only when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args...)
}

func (l *Logger) emit(coloredPrefix, plainPrefix, format string, args ...interface{}) {
	prefix := coloredPrefix
	if l.noColor {
		prefix = plainPrefix
	}
	fmt.Fprintf(l.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Secret is a string whose formatted representation is always redacted.
// Wrap any value that must never reach a log line.
type Secret string

// String implements fmt.Stringer.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, covering %#v formatting.
func (s Secret) GoString() string { return "[REDACTED]" }

// Redact replaces occurrences of the given secret values in s. Values
// shorter than four characters are left alone to avoid mangling ordinary
// text.
func Redact(s string, values []string) string {
	result := s
	for _, v := range values {
		if len(v) > 3 {
			result = strings.ReplaceAll(result, v, "[REDACTED]")
		}
	}
	return result
}
