package logging

import (
	"log/slog"
	"os"
)

// Logger is a thin wrapper over slog with field helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a human-readable debug logger in development and a
// JSON info logger otherwise.
func NewLogger(isDevelopment bool) *Logger {
	var handler slog.Handler
	if isDevelopment {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// New wraps an existing slog handler. Mostly useful in tests.
func New(handler slog.Handler) *Logger {
	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a child logger carrying the given attributes.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}
