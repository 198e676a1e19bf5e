package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a logger without touching the default
func NewLogger(output io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(level)}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.New(slog.NewJSONHandler(output, opts))
	default:
		return slog.New(slog.NewTextHandler(output, opts))
	}
}

// ParseLogLevel maps a level name to a slog level, defaulting to info
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
