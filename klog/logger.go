// Package klog wraps zerolog to satisfy kernel.Logger, the only logging
// surface the kernel core calls: a fatal-error hook and the System
// start/tick lifecycle Debug lines. It is deliberately not a general
// logging facade for application code built on top of the kernel.
package klog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger adapts a zerolog.Logger to kernel.Logger's narrow interface.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing human-readable console output to w. Pass
// nil for the common case of writing to stderr.
func New(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return Logger{zl: zerolog.New(console).With().Timestamp().Logger()}
}

// NewJSON builds a Logger writing structured JSON to w, for production
// deployments that ship logs to a collector rather than a terminal.
func NewJSON(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

func (l Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

// Fatalf logs at error level rather than zerolog's own Fatal, which would
// os.Exit before the kernel's configured FatalHook ever runs.
func (l Logger) Fatalf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}
