package logger

import (
	"io"
	"log/slog"
)

func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}

// Text returns a handler factory that writes human-readable lines to w. The
// CLI logs this way.
func Text(w io.Writer) func(level slog.Level) slog.Handler {
	return func(level slog.Level) slog.Handler {
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
}
