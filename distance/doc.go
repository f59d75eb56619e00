// Package distance provides Hamming distance and nearest-center
// lookups over packed boolean points.
//
// Hamming distance is the count of differing coordinates between two
// vectors of equal dimension, computed wordwise as popcount(xor).
//
// # Usage
//
//	d := distance.Hamming(a, b)
//	idx, d := distance.Nearest(q, centers, nil)
//
// Nearest scans sequentially, so equal distances always resolve to the
// lowest center index.
package distance
