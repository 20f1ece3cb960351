package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGDeterminism(t *testing.T) {
	rng := NewRNG(42)
	assert.Equal(t, int64(42), rng.Seed())

	a := make([]uint64, 16)
	rng.FillUniformRange(a, 10, 99)

	rng.Reset()
	b := make([]uint64, 16)
	rng.FillUniformRange(b, 10, 99)

	assert.Equal(t, a, b)
	for _, v := range a {
		assert.GreaterOrEqual(t, v, uint64(10))
		assert.LessOrEqual(t, v, uint64(99))
	}
}

func TestRNGUint64Range(t *testing.T) {
	rng := NewRNG(1)
	for i := 0; i < 100; i++ {
		v := rng.Uint64Range(5, 7)
		assert.GreaterOrEqual(t, v, uint64(5))
		assert.LessOrEqual(t, v, uint64(7))
	}
}

func TestReferencePredicates(t *testing.T) {
	ref := NewReference([]uint64{5, 1, 9, 3, 7})
	require.Equal(t, 5, ref.Rows())

	assert.Equal(t, []uint32{3}, Rows32(ref.Eq(3)))
	assert.Equal(t, []uint32{0, 1, 2, 4}, Rows32(ref.Neq(3)))
	assert.Equal(t, []uint32{1, 3}, Rows32(ref.Lt(5)))
	assert.Equal(t, []uint32{0, 1, 3}, Rows32(ref.Lte(5)))
	assert.Equal(t, []uint32{2, 4}, Rows32(ref.Gt(5)))
	assert.Equal(t, []uint32{0, 2, 4}, Rows32(ref.Gte(5)))
	assert.Equal(t, []uint32{0, 3, 4}, Rows32(ref.Between(3, 7)))
	assert.Empty(t, Rows32(ref.Eq(2)))
}
