// Package logging builds the zerolog loggers used by the command-line
// entrypoints and injected into batch components.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a structured logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsole returns a human-readable logger for interactive use.
// Verbose lowers the level to debug.
func NewConsole(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return New(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}
