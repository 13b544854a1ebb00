// Package logging builds the process-wide slog logger for the digest
// pipeline. Every long-lived collaborator gets a child logger tagged with
// a component attribute, so a failed curation run and a run that simply
// had nothing new to send are distinguishable per component in the output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a console text logger at the given level.
func New(level string) *slog.Logger {
	return NewWriter(os.Stdout, level)
}

// NewWriter creates a text logger writing to w at the given level. An
// unrecognized level falls back to info.
func NewWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

// Component derives a child logger for one part of the pipeline; every
// record it emits carries a component attribute.
func Component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("component", name)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
