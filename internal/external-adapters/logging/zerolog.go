// Package logging provides the zerolog-backed Logger implementation and the
// CI provider's workflow-command output.
package logging

import (
	"io"

	"github.com/rs/zerolog"

	"wasmforge/internal/domain/interfaces"
)

// Logger implements interfaces.Logger using zerolog as the backend
type Logger struct {
	zl zerolog.Logger
}

// New creates a console logger writing to w. Debug-level output is
// enabled when debug is true (the CI runner sets RUNNER_DEBUG=1).
func New(w io.Writer, debug bool) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(level).
		With().Timestamp().Logger()

	return &Logger{zl: zl}
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.emit(l.zl.Info(), msg, fields)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *Logger) emit(ev *zerolog.Event, msg string, fields []interfaces.Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}
