package sckm

import (
	"log/slog"
	"time"
)

type options struct {
	logger            *Logger
	metricsCollector  MetricsCollector
	parallelism       int
	updateWaitTimeout time.Duration
}

// Option configures model construction and load behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := sckm.NewJSONLogger(slog.LevelInfo)
//	m, _ := sckm.New(data, sckm.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &sckm.BasicMetricsCollector{}
//	m, _ := sckm.New(data, sckm.WithMetricsCollector(metrics))
//	// ... train and query ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithParallelism sets the number of workers used for the data-parallel
// assignment step of training. Values below 1 select GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithUpdateWaitTimeout bounds how long UpdateData waits for an
// in-flight training run when the caller's context carries no
// deadline. Zero (the default) waits until the context is done.
func WithUpdateWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.updateWaitTimeout = d
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
