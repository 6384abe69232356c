// Package logging constructs the loggers handed to pipeline components.
// There is no process-wide default: every component receives its logger
// explicitly so it stays independently testable and safe to run concurrently.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns the root pipeline logger writing to w (os.Stderr when nil).
// Format must be "text" or "json".
func New(level slog.Level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Component scopes a logger to one pipeline component.
func Component(log *slog.Logger, name string) *slog.Logger {
	return log.With(slog.String("component", name))
}

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
}
