package testutil

import (
	"math/rand"
	"sync"

	"github.com/bits-and-blooms/bitset"
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

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Uint64Range returns a pseudo-random uint64 in [minVal, maxVal].
func (r *RNG) Uint64Range(minVal, maxVal uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return minVal + r.rand.Uint64()%(maxVal-minVal+1)
}

// FillUniformRange fills dst with random values in [minVal, maxVal].
// Locks only once per call (preferred over calling Uint64Range in a loop).
func (r *RNG) FillUniformRange(dst []uint64, minVal, maxVal uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = minVal + r.rand.Uint64()%(maxVal-minVal+1)
	}
}

// Reference is a brute-force index over a value column: every predicate
// is answered by a linear scan, which makes it the oracle the compressed
// implementation is checked against.
type Reference struct {
	values []uint64
}

// NewReference creates a reference index over values. The slice is
// retained, not copied.
func NewReference(values []uint64) *Reference {
	return &Reference{values: values}
}

// Rows returns the number of indexed rows.
func (ref *Reference) Rows() int {
	return len(ref.values)
}

// Select returns the rows whose value satisfies pred.
func (ref *Reference) Select(pred func(uint64) bool) *bitset.BitSet {
	out := bitset.New(uint(len(ref.values)))
	for row, v := range ref.values {
		if pred(v) {
			out.Set(uint(row))
		}
	}
	return out
}

// Eq returns the rows whose value equals code.
func (ref *Reference) Eq(code uint64) *bitset.BitSet {
	return ref.Select(func(v uint64) bool { return v == code })
}

// Neq returns the rows whose value differs from code.
func (ref *Reference) Neq(code uint64) *bitset.BitSet {
	return ref.Select(func(v uint64) bool { return v != code })
}

// Lt returns the rows whose value is less than code.
func (ref *Reference) Lt(code uint64) *bitset.BitSet {
	return ref.Select(func(v uint64) bool { return v < code })
}

// Lte returns the rows whose value is at most code.
func (ref *Reference) Lte(code uint64) *bitset.BitSet {
	return ref.Select(func(v uint64) bool { return v <= code })
}

// Gt returns the rows whose value is greater than code.
func (ref *Reference) Gt(code uint64) *bitset.BitSet {
	return ref.Select(func(v uint64) bool { return v > code })
}

// Gte returns the rows whose value is at least code.
func (ref *Reference) Gte(code uint64) *bitset.BitSet {
	return ref.Select(func(v uint64) bool { return v >= code })
}

// Between returns the rows whose value lies in [lo, hi].
func (ref *Reference) Between(lo, hi uint64) *bitset.BitSet {
	return ref.Select(func(v uint64) bool { return lo <= v && v <= hi })
}

// Rows32 converts a reference result to sorted uint32 row numbers.
func Rows32(bs *bitset.BitSet) []uint32 {
	out := make([]uint32, 0, bs.Count())
	for row, ok := bs.NextSet(0); ok; row, ok = bs.NextSet(row + 1) {
		out = append(out, uint32(row))
	}
	return out
}
