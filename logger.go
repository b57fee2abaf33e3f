package bitgo

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with bitgo-specific helpers so index and
// snapshot operations log with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler falls
// back to a text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger emitting JSON records at the given level.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	}))}
}

// WithField adds a field name to the logger (useful for tagging per-field
// index operations).
func (l *Logger) WithField(field string) *Logger {
	return &Logger{Logger: l.Logger.With("field", field)}
}

// WithSnapshot adds a snapshot name to the logger.
func (l *Logger) WithSnapshot(name string) *Logger {
	return &Logger{Logger: l.Logger.With("snapshot", name)}
}
