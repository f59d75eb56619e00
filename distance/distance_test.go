package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/sckm/point"
)

func TestHamming(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Identical", "0101", "0101", 0},
		{"AllDiffer", "0000", "1111", 4},
		{"Single", "0", "1", 1},
		{"Mixed", "0110", "1110", 1},
		{"Empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hamming(point.MustParse(tt.a), point.MustParse(tt.b))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHammingWide(t *testing.T) {
	// Dimensions beyond one packed word exercise the multi-word path.
	a := make([]bool, 130)
	b := make([]bool, 130)
	a[0], a[64], a[129] = true, true, true
	b[0] = true

	assert.Equal(t, 2, Hamming(point.New(a), point.New(b)))
	assert.Equal(t, 2, Hamming(point.New(b), point.New(a)))
}

func TestNearest(t *testing.T) {
	centers := []point.BoolPoint{
		point.MustParse("000"),
		point.MustParse("001"),
		point.MustParse("110"),
	}

	tests := []struct {
		name         string
		q            string
		filter       func(i int) bool
		expectedIdx  int
		expectedDist int
	}{
		{"Exact", "110", nil, 2, 0},
		{"Near", "001", nil, 1, 0},
		{"TieLowestIndex", "010", nil, 0, 1}, // centers 0 and 2 both at distance 1
		{"Filtered", "000", func(i int) bool { return i != 0 }, 1, 1},
		{"AllFiltered", "000", func(i int) bool { return false }, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, dist := Nearest(point.MustParse(tt.q), centers, tt.filter)
			assert.Equal(t, tt.expectedIdx, idx)
			if tt.expectedIdx >= 0 {
				assert.Equal(t, tt.expectedDist, dist)
			}
		})
	}
}

func TestNearestTieBreak(t *testing.T) {
	// Two identical centers: the scan must keep the lower index.
	centers := []point.BoolPoint{
		point.MustParse("0101"),
		point.MustParse("0101"),
	}

	idx, dist := Nearest(point.MustParse("0100"), centers, nil)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, dist)
}
