package utils

import (
	"io"
	"log/slog"
)

// SetupLogging installs the default slog logger used by the command line
// tools: human-readable text, or JSON when jsonFormat is set.
func SetupLogging(w io.Writer, level slog.Level, jsonFormat bool) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
