package logging

import (
	"io"
	"log/slog"
	"os"
)

// Formats accepted by NewFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New creates a configured application logger.
// It writes to Stderr (to keep Stdout free for results and JSON-RPC).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return NewFormat(os.Stderr, level, FormatText)
}

// NewFormat builds a logger writing to w in the given format. Unknown formats fall back to text.
func NewFormat(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	// Standardize 'error' key to 'err'
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}
