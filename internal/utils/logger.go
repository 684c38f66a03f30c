package utils

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process-wide structured logger. Logs go to stderr so
// the one-shot triage command keeps stdout clean for reports and snapshots.
func NewLogger(level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// parseLevel maps a config string to a slog level; anything unrecognised
// falls back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
