package distance

import (
	"github.com/hupe1980/sckm/internal/bitvec"
	"github.com/hupe1980/sckm/point"
)

// Hamming returns the number of differing coordinates between a and b.
// Assumes points share the same dimension (caller's responsibility).
func Hamming(a, b point.BoolPoint) int {
	return bitvec.Hamming(a.Words(), b.Words())
}

// Nearest returns the index of the center nearest to q by Hamming
// distance, and the distance to it. The scan is sequential and uses a
// strict-less comparison, so equal distances resolve to the lowest
// center index.
//
// filter, when non-nil, excludes centers for which it returns false.
// When every center is excluded, Nearest returns (-1, 0).
func Nearest(q point.BoolPoint, centers []point.BoolPoint, filter func(i int) bool) (int, int) {
	best, bestDist := -1, 0
	for i := range centers {
		if filter != nil && !filter(i) {
			continue
		}
		d := Hamming(q, centers[i])
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
