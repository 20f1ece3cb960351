package rangebitmap

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// RowSet is an ordered set of matching row identifiers. It wraps a
// roaring bitmap; query methods return RowSets and accept them as
// context for pushdown evaluation.
type RowSet struct {
	rb *roaring.Bitmap
}

// NewRowSet creates an empty RowSet.
func NewRowSet() *RowSet {
	return &RowSet{rb: roaring.New()}
}

// NewRowSetOf creates a RowSet holding the given rows.
func NewRowSetOf(rows ...uint32) *RowSet {
	return &RowSet{rb: roaring.BitmapOf(rows...)}
}

// Add adds a row to the set.
func (s *RowSet) Add(row uint32) {
	s.rb.Add(row)
}

// AddRange adds all rows in [start, end).
func (s *RowSet) AddRange(start, end uint64) {
	s.rb.AddRange(start, end)
}

// Contains reports whether row is in the set.
func (s *RowSet) Contains(row uint32) bool {
	return s.rb.Contains(row)
}

// Cardinality returns the number of rows in the set.
func (s *RowSet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// IsEmpty reports whether the set is empty.
func (s *RowSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// ToArray returns the rows in ascending order.
func (s *RowSet) ToArray() []uint32 {
	return s.rb.ToArray()
}

// Iterate calls fn for each row in ascending order until fn returns
// false.
func (s *RowSet) Iterate(fn func(row uint32) bool) {
	s.rb.Iterate(fn)
}

// And intersects s with other in place.
func (s *RowSet) And(other *RowSet) {
	s.rb.And(other.rb)
}

// Or unions other into s in place.
func (s *RowSet) Or(other *RowSet) {
	s.rb.Or(other.rb)
}

// AndNot removes other's rows from s in place.
func (s *RowSet) AndNot(other *RowSet) {
	s.rb.AndNot(other.rb)
}

// Clone returns a deep copy of the set.
func (s *RowSet) Clone() *RowSet {
	return &RowSet{rb: s.rb.Clone()}
}

// Equals reports whether two sets hold the same rows.
func (s *RowSet) Equals(other *RowSet) bool {
	return s.rb.Equals(other.rb)
}

// GetSizeInBytes returns the serialized size of the underlying bitmap.
func (s *RowSet) GetSizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}

// countInBand returns the number of rows in [base, base+bandRows) and
// whether the band overlaps the set at all.
func (s *RowSet) countInBand(base uint64, bandRows uint64) uint64 {
	hi := s.rb.Rank(uint32(base + bandRows - 1))
	var lo uint64
	if base > 0 {
		lo = s.rb.Rank(uint32(base - 1))
	}
	return hi - lo
}

// fillBand sets words bits for every row of s within [base, base+bandRows)
// and returns the number of bits set. words spans one 65536-row band.
func (s *RowSet) fillBand(base uint64, bandRows uint64, words []uint64) int {
	n := 0
	it := s.rb.Iterator()
	it.AdvanceIfNeeded(uint32(base))
	end := base + bandRows
	for it.HasNext() {
		row := uint64(it.Next())
		if row >= end {
			break
		}
		off := row - base
		words[off>>6] |= uint64(1) << (off & 63)
		n++
	}
	return n
}
