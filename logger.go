package sckm

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with sckm-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithPoints adds a dataset-size field to the logger.
func (l *Logger) WithPoints(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("points", n),
	}
}

// LogTrain logs a training run.
func (l *Logger) LogTrain(ctx context.Context, eta, iterations, clusters int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "training failed",
			"eta", eta,
			"iterations", iterations,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "training completed",
			"eta", eta,
			"iterations", iterations,
			"clusters", clusters,
			"duration", duration,
		)
	}
}

// LogQuery logs a SameCluster query.
func (l *Logger) LogQuery(ctx context.Context, verdict Connectivity, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"verdict", verdict.String(),
		)
	}
}

// LogUpdate logs a dataset replacement.
func (l *Logger) LogUpdate(ctx context.Context, points int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"points", points,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dataset replaced",
			"points", points,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
			"name", name,
		)
	}
}
