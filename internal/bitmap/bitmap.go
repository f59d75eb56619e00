// Package bitmap wraps the roaring bitmap used for point-index sets:
// per-cluster memberships and the malware/accept label sets.
package bitmap

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap is a set of point indices backed by a 32-bit roaring bitmap.
type Bitmap struct {
	rb *roaring.Bitmap
}

// New creates a new empty bitmap.
func New() *Bitmap {
	return &Bitmap{
		rb: roaring.New(),
	}
}

// Add adds a point index to the set.
func (b *Bitmap) Add(i uint32) {
	b.rb.Add(i)
}

// Remove removes a point index from the set.
func (b *Bitmap) Remove(i uint32) {
	b.rb.Remove(i)
}

// Contains reports whether the set holds the point index.
func (b *Bitmap) Contains(i uint32) bool {
	return b.rb.Contains(i)
}

// IsEmpty reports whether the set is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of indices in the set.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// AndCardinality returns the size of the intersection with other
// without materializing it.
func (b *Bitmap) AndCardinality(other *Bitmap) uint64 {
	return b.rb.AndCardinality(other.rb)
}

// Clone returns a deep copy of the set.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{
		rb: b.rb.Clone(),
	}
}

// Clear removes all indices from the set.
func (b *Bitmap) Clear() {
	b.rb.Clear()
}

// Iterator returns an iterator over the set in ascending order.
func (b *Bitmap) Iterator() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := b.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}
