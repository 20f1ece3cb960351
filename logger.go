package rangebitmap

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with rangebitmap-specific helpers so builds,
// loads and queries log with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, a text handler to stderr at info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output. This is the
// default for builders and loads unless WithLogger is given.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// LogSeal logs the outcome of sealing a builder.
func (l *Logger) LogSeal(ctx context.Context, rows uint64, bitWidth int, slices int) {
	l.InfoContext(ctx, "range bitmap sealed",
		"rows", rows,
		"bit_width", bitWidth,
		"slices", slices,
	)
}

// LogLoad logs the outcome of loading a persisted structure.
func (l *Logger) LogLoad(ctx context.Context, path string, rows uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "range bitmap loaded",
			"path", path,
			"rows", rows,
		)
	}
}

// LogQuery logs a query at debug level.
func (l *Logger) LogQuery(ctx context.Context, op string, code uint64, matches uint64) {
	l.DebugContext(ctx, "query completed",
		"op", op,
		"code", code,
		"matches", matches,
	)
}
