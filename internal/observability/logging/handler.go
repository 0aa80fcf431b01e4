// Package logging configures the process-wide slog handler.
package logging

import (
	"log/slog"
	"os"
)

// NewHandler returns a JSON slog handler at the given level. All packages log
// through the default logger; there is no per-package logger plumbing.
func NewHandler(level slog.Level) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
}

// Setup installs the default logger for the process.
func Setup(level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(level)))
}
