package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/sckm/point"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bool returns a pseudo-random boolean with equal probability.
func (r *RNG) Bool() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(2) == 1
}

// FillBits fills dst with random booleans.
// Locks only once per call (preferred over calling Bool in a loop).
func (r *RNG) FillBits(dst []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Intn(2) == 1
	}
}

// Bits generates a random boolean vector of the given dimension.
func (r *RNG) Bits(dim int) []bool {
	bits := make([]bool, dim)
	r.FillBits(bits)
	return bits
}

// Point generates a random boolean point of the given dimension.
func (r *RNG) Point(dim int) point.BoolPoint {
	return point.New(r.Bits(dim))
}

// Flip returns a copy of bits with k distinct coordinates inverted.
// k is clamped to the dimension.
func (r *RNG) Flip(bits []bool, k int) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]bool, len(bits))
	copy(out, bits)

	if k > len(out) {
		k = len(out)
	}
	for _, j := range r.rand.Perm(len(out))[:k] {
		out[j] = !out[j]
	}
	return out
}

// UniformPoints generates num unlabeled random observations of the
// given dimension.
func (r *RNG) UniformPoints(num, dim int) []point.Labeled {
	data := make([]point.Labeled, num)
	for i := range data {
		data[i] = point.Labeled{Point: r.Point(dim), Label: point.LabelNone}
	}
	return data
}

// Clusters generates k planted boolean clusters of perCluster points
// each. Every cluster scatters around a random anchor with flip
// coordinates inverted per point, and carries one label for all of its
// points, alternating accept/malware by cluster index so neighboring
// clusters oppose each other. It returns the labeled dataset and the
// anchors, in cluster order.
//
// Anchors are re-drawn until they sit pairwise further than 2*flip+1
// apart, so the planted structure is recoverable by Hamming distance.
// Clusters panics when the draw budget runs out, which means k, dim,
// and flip leave no room for separable clusters.
func (r *RNG) Clusters(k, perCluster, dim, flip int) ([]point.Labeled, []point.BoolPoint) {
	const maxDraws = 10000

	anchors := make([]point.BoolPoint, 0, k)
	for draws := 0; len(anchors) < k; draws++ {
		if draws == maxDraws {
			panic(fmt.Sprintf("testutil: no %d anchors further than %d apart in dimension %d after %d draws",
				k, 2*flip+1, dim, maxDraws))
		}
		candidate := r.Point(dim)

		ok := true
		for _, a := range anchors {
			if hamming(a, candidate) <= 2*flip+1 {
				ok = false
				break
			}
		}
		if ok {
			anchors = append(anchors, candidate)
		}
	}

	data := make([]point.Labeled, 0, k*perCluster)
	for c, anchor := range anchors {
		label := point.LabelAccept
		if c%2 == 1 {
			label = point.LabelMalware
		}

		bits := anchor.Bools()
		for i := 0; i < perCluster; i++ {
			data = append(data, point.Labeled{
				Point: point.New(r.Flip(bits, flip)),
				Label: label,
			})
		}
	}

	return data, anchors
}

// Shuffle permutes the dataset in place.
func (r *RNG) Shuffle(data []point.Labeled) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(data), func(i, j int) {
		data[i], data[j] = data[j], data[i]
	})
}

func hamming(a, b point.BoolPoint) int {
	d := 0
	for i := 0; i < a.Dim(); i++ {
		if a.Bit(i) != b.Bit(i) {
			d++
		}
	}
	return d
}
