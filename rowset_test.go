package rangebitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowSetBasics(t *testing.T) {
	s := NewRowSet()
	assert.True(t, s.IsEmpty())

	s.Add(3)
	s.Add(1)
	s.AddRange(10, 13)

	assert.Equal(t, uint64(5), s.Cardinality())
	assert.Equal(t, []uint32{1, 3, 10, 11, 12}, s.ToArray())
	assert.True(t, s.Contains(11))
	assert.False(t, s.Contains(13))
}

func TestRowSetSetOps(t *testing.T) {
	a := NewRowSetOf(1, 2, 3, 4)
	b := NewRowSetOf(3, 4, 5)

	inter := a.Clone()
	inter.And(b)
	assert.Equal(t, []uint32{3, 4}, inter.ToArray())

	union := a.Clone()
	union.Or(b)
	assert.Equal(t, []uint32{1, 2, 3, 4, 5}, union.ToArray())

	diff := a.Clone()
	diff.AndNot(b)
	assert.Equal(t, []uint32{1, 2}, diff.ToArray())

	// Clone is independent of its source.
	assert.Equal(t, []uint32{1, 2, 3, 4}, a.ToArray())
	assert.True(t, a.Equals(NewRowSetOf(4, 3, 2, 1)))
	assert.False(t, a.Equals(b))
}

func TestRowSetIterate(t *testing.T) {
	s := NewRowSetOf(2, 4, 6, 8)

	var seen []uint32
	s.Iterate(func(row uint32) bool {
		seen = append(seen, row)
		return row < 6
	})
	assert.Equal(t, []uint32{2, 4, 6}, seen)
}

func TestRowSetBandHelpers(t *testing.T) {
	s := NewRowSet()
	s.Add(5)
	s.Add(BandRows - 1)
	s.Add(BandRows)
	s.Add(BandRows + 100)

	assert.Equal(t, uint64(2), s.countInBand(0, BandRows))
	assert.Equal(t, uint64(2), s.countInBand(BandRows, BandRows))
	assert.Equal(t, uint64(0), s.countInBand(2*BandRows, BandRows))

	words := make([]uint64, bandWords)
	n := s.fillBand(BandRows, BandRows, words)
	assert.Equal(t, 2, n)
	assert.NotZero(t, words[0]&1)                  // offset 0
	assert.NotZero(t, words[100/64]&(1<<(100%64))) // offset 100
}
