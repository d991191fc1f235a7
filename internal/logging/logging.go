// Package logging defines a deliberately small, framework-agnostic logging
// interface plus the default zerolog-backed implementation. Components only
// depend on Logger, so tests can swap in an in-memory recorder.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the logging seam used by every internal package.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value interface{}
}

// ZerologLogger implements Logger on top of rs/zerolog, emitting one JSON
// line per event.
type ZerologLogger struct {
	zl zerolog.Logger
}

// New creates a JSON logger writing to stdout. component is attached as a
// persistent field when non-empty.
func New(component string) *ZerologLogger {
	return NewWithWriter(component, os.Stdout)
}

// NewWithWriter creates a logger writing to w. Used by tests to capture
// output.
func NewWithWriter(component string, w io.Writer) *ZerologLogger {
	ctx := zerolog.New(w).With().Timestamp()
	if component != "" {
		ctx = ctx.Str("component", component)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *ZerologLogger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }
func (l *ZerologLogger) Warn(msg string, fields ...Field)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *ZerologLogger) Error(msg string, fields ...Field) { l.emit(l.zl.Error(), msg, fields) }

func (l *ZerologLogger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// Nop returns a logger that discards everything. Handy as a default when a
// caller passes nil.
func Nop() Logger {
	return &ZerologLogger{zl: zerolog.Nop()}
}

// OrNop returns logger unchanged when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}
