// Package bitvec provides low-level helpers over packed boolean words.
package bitvec

import "math/bits"

// Words returns the number of uint64 words needed to hold n bits.
func Words(n int) int {
	return (n + 63) >> 6
}

// Hamming returns the number of differing bits between a and b.
// Slices must have equal length and zero slack bits.
func Hamming(a, b []uint64) int {
	var n int
	for i := range a {
		n += bits.OnesCount64(a[i] ^ b[i])
	}
	return n
}

// OnesCount returns the total number of set bits in w.
func OnesCount(w []uint64) int {
	var n int
	for _, word := range w {
		n += bits.OnesCount64(word)
	}
	return n
}

// AccumulateOnes increments counts[j] for every set bit j in w.
// counts must be long enough to index every set bit.
func AccumulateOnes(counts []int, w []uint64) {
	for wi, word := range w {
		base := wi << 6
		for word != 0 {
			counts[base+bits.TrailingZeros64(word)]++
			word &= word - 1
		}
	}
}
