// Package testutil provides testing utilities for SCKM.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random source and generators for
// boolean datasets with planted cluster structure.
//
// # Random Dataset Generation
//
//	rng := testutil.NewRNG(seed)
//	data := rng.UniformPoints(100, 32)       // unlabeled noise
//	data, anchors := rng.Clusters(4, 25, 32, 3) // planted labeled clusters
//
// Clusters plants k well-separated anchors and scatters labeled points
// around them, giving tests reproducible datasets with known structure.
package testutil
