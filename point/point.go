package point

import (
	"fmt"
	"strings"

	"github.com/hupe1980/sckm/internal/bitvec"
)

// BoolPoint is an immutable observation in d-dimensional boolean
// feature space.
//
// Coordinates are packed into uint64 words, 64 per word, with slack
// bits of the last word always zero. The zero value is the empty point
// of dimension 0.
type BoolPoint struct {
	dim   int
	words []uint64
}

// New creates a BoolPoint from a slice of booleans.
func New(bits []bool) BoolPoint {
	p := BoolPoint{
		dim:   len(bits),
		words: make([]uint64, bitvec.Words(len(bits))),
	}
	for i, b := range bits {
		if b {
			p.words[i>>6] |= 1 << (uint(i) & 63)
		}
	}
	return p
}

// FromWords builds a BoolPoint of the given dimension from packed
// words. The slice is copied and slack bits beyond dim are cleared.
func FromWords(dim int, words []uint64) (BoolPoint, error) {
	if dim < 0 {
		return BoolPoint{}, fmt.Errorf("point: negative dimension %d", dim)
	}
	if len(words) != bitvec.Words(dim) {
		return BoolPoint{}, fmt.Errorf("point: %d words cannot hold dimension %d", len(words), dim)
	}
	p := BoolPoint{
		dim:   dim,
		words: make([]uint64, len(words)),
	}
	copy(p.words, words)
	if rem := dim & 63; rem != 0 && len(p.words) > 0 {
		p.words[len(p.words)-1] &= (1 << uint(rem)) - 1
	}
	return p, nil
}

// Parse converts a bit string such as "0110" into a BoolPoint.
func Parse(s string) (BoolPoint, error) {
	bits := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			bits[i] = true
		default:
			return BoolPoint{}, fmt.Errorf("point: invalid bit %q at position %d", s[i], i)
		}
	}
	return New(bits), nil
}

// MustParse is like Parse but panics on invalid input.
// Intended for tests and fixed literals.
func MustParse(s string) BoolPoint {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Dim returns the dimension of the point.
func (p BoolPoint) Dim() int {
	return p.dim
}

// Bit reports whether coordinate i is set.
// Out-of-range coordinates report false.
func (p BoolPoint) Bit(i int) bool {
	if i < 0 || i >= p.dim {
		return false
	}
	return p.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// Words returns the packed coordinate words.
//
// WARNING: the returned slice references internal memory and must not
// be modified by the caller.
func (p BoolPoint) Words() []uint64 {
	return p.words
}

// Bools returns the coordinates as a fresh boolean slice.
func (p BoolPoint) Bools() []bool {
	bits := make([]bool, p.dim)
	for i := range bits {
		bits[i] = p.Bit(i)
	}
	return bits
}

// OnesCount returns the number of set coordinates.
func (p BoolPoint) OnesCount() int {
	return bitvec.OnesCount(p.words)
}

// Equal reports whether q has the same dimension and coordinates.
func (p BoolPoint) Equal(q BoolPoint) bool {
	if p.dim != q.dim {
		return false
	}
	for i := range p.words {
		if p.words[i] != q.words[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the point.
func (p BoolPoint) Clone() BoolPoint {
	q := BoolPoint{
		dim:   p.dim,
		words: make([]uint64, len(p.words)),
	}
	copy(q.words, p.words)
	return q
}

// String returns the bit-string form, e.g. "0110".
func (p BoolPoint) String() string {
	var sb strings.Builder
	sb.Grow(p.dim)
	for i := 0; i < p.dim; i++ {
		if p.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Labeled is a possibly-labeled observation.
type Labeled struct {
	Point BoolPoint
	Label Label
}

// NewLabeled creates a Labeled observation from raw coordinates.
func NewLabeled(bits []bool, label Label) Labeled {
	return Labeled{Point: New(bits), Label: label}
}
