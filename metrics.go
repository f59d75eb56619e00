package sckm

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordTrain is called after each training run.
	// iterations is the number of iterations executed, clusters the
	// resolved cluster count, duration the total time taken, err is
	// nil if successful.
	RecordTrain(iterations, clusters int, duration time.Duration, err error)

	// RecordQuery is called after each SameCluster call.
	RecordQuery(duration time.Duration, err error)

	// RecordUpdate is called after each dataset replacement.
	// points is the size of the new dataset.
	RecordUpdate(points int, duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot save or load.
	// bytes is the payload size when known, otherwise 0.
	RecordSnapshot(op string, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTrain(int, int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordQuery(time.Duration, error)                  {}
func (NoopMetricsCollector) RecordUpdate(int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordSnapshot(string, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	TrainCount      atomic.Int64
	TrainErrors     atomic.Int64
	TrainIterations atomic.Int64
	TrainTotalNanos atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	UpdateCount     atomic.Int64
	UpdateErrors    atomic.Int64
	UpdatePoints    atomic.Int64
	SnapshotCount   atomic.Int64
	SnapshotErrors  atomic.Int64
	SnapshotBytes   atomic.Int64
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(iterations, clusters int, duration time.Duration, err error) {
	b.TrainCount.Add(1)
	b.TrainIterations.Add(int64(iterations))
	b.TrainTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TrainErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(points int, duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	b.UpdatePoints.Add(int64(points))
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(op string, bytes int64, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotBytes.Add(bytes)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		TrainCount:      b.TrainCount.Load(),
		TrainErrors:     b.TrainErrors.Load(),
		TrainIterations: b.TrainIterations.Load(),
		TrainAvgNanos:   b.getAvgTrainNanos(),
		QueryCount:      b.QueryCount.Load(),
		QueryErrors:     b.QueryErrors.Load(),
		QueryAvgNanos:   b.getAvgQueryNanos(),
		UpdateCount:     b.UpdateCount.Load(),
		UpdateErrors:    b.UpdateErrors.Load(),
		UpdatePoints:    b.UpdatePoints.Load(),
		SnapshotCount:   b.SnapshotCount.Load(),
		SnapshotErrors:  b.SnapshotErrors.Load(),
		SnapshotBytes:   b.SnapshotBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgTrainNanos() int64 {
	count := b.TrainCount.Load()
	if count == 0 {
		return 0
	}
	return b.TrainTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	TrainCount      int64
	TrainErrors     int64
	TrainIterations int64
	TrainAvgNanos   int64
	QueryCount      int64
	QueryErrors     int64
	QueryAvgNanos   int64
	UpdateCount     int64
	UpdateErrors    int64
	UpdatePoints    int64
	SnapshotCount   int64
	SnapshotErrors  int64
	SnapshotBytes   int64
}
