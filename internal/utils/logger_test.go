package utils

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"DEBUG":    slog.LevelDebug,
		"warn":     slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"":         slog.LevelInfo,
		"nonsense": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	logger := NewLogger("error", true)
	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelWarn) {
		t.Errorf("warn enabled at error level")
	}
	if !logger.Enabled(ctx, slog.LevelError) {
		t.Errorf("error disabled at error level")
	}
}
