package sckm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned by Train when the model is not in the
	// ready state (a run is pending, or results are already frozen).
	ErrNotReady = errors.New("model not ready")

	// ErrNotTrained is returned by queries before a training run has
	// completed.
	ErrNotTrained = errors.New("model not trained")

	// ErrEmptyDataset is returned when a model is built from zero points.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrInvalidEta is returned when the iteration bound is negative.
	ErrInvalidEta = errors.New("eta must be non-negative")

	// ErrClosed is returned by operations on a closed model.
	ErrClosed = errors.New("model closed")
)

// ErrDimensionMismatch indicates a boolean vector whose length differs
// from the model's established dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid point dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }
