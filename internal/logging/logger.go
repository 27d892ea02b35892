// Package logging builds the application loggers. Everything logs through
// log/slog; this package only decides handler, destination and key hygiene.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// replaceAttr standardizes common keys ("error" -> "err") so log queries
// don't have to match both spellings.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}

// New creates the interactive-session logger. It writes text to stderr so
// stdout stays free for the terminal UI and report output.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

// NewJSON creates the server logger: JSON lines on stderr, one object per
// record, for log shippers.
func NewJSON(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
