// Package logging configures the structured logger for tdlink commands.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup initializes logging with the given level and format, writing to
// stderr. Valid levels: debug, info, warn, error. Valid formats: json, text.
// Returns the configured logger and sets it as the slog default.
func Setup(level, format string) *slog.Logger {
	return SetupWriter(level, format, os.Stderr)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
