// Package container implements the compressed offset-set containers backing
// one bit-plane of one horizontal slice. A container holds 16-bit row
// offsets within a 65536-row band and picks its representation by density:
// a sorted array for sparse sets, a fixed 1024-word bitset for dense sets,
// and (start,last) runs when few boundaries dominate.
package container

import (
	"math/bits"
)

const (
	// MaxCardinality is the number of offsets a container can hold.
	MaxCardinality = 1 << 16

	// bitsetWords is the number of uint64 words in a bitset container.
	bitsetWords = MaxCardinality / 64

	// BitsetBytes is the fixed serialized size of a bitset container.
	BitsetBytes = bitsetWords * 8

	// arrayMaxSize is the build-time conversion threshold: an array
	// container converts to a bitset once it would exceed this many
	// entries (8192 bytes, the bitset's footprint).
	arrayMaxSize = 4096
)

// Kind tags a container's representation.
type Kind uint8

const (
	KindArray Kind = iota + 1
	KindBitset
	KindRun
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindBitset:
		return "bitset"
	case KindRun:
		return "run"
	default:
		return "invalid"
	}
}

// Run is an inclusive interval [Start, Last] of offsets.
type Run struct {
	Start uint16
	Last  uint16
}

// Container is a set of 16-bit offsets. Exactly one of array, bitmap and
// runs is non-nil (all nil means empty). The chosen representation is a
// size decision only: every operation produces identical logical results
// regardless of variant.
//
// Containers are mutable during slice construction via Add and become
// immutable once the owning slice seals. Containers remapped from a
// persisted byte region have mapped set and must never be mutated.
type Container struct {
	n      int // cached cardinality; for runs it is kept in sync too
	array  []uint16
	bitmap []uint64
	runs   []Run
	mapped bool
}

// New returns an empty container.
func New() *Container {
	return &Container{}
}

// NewFromOffsets builds a container from sorted unique offsets.
func NewFromOffsets(offsets []uint16) *Container {
	c := New()
	for _, v := range offsets {
		c.Add(v)
	}
	return c
}

// Kind returns the current representation tag.
func (c *Container) Kind() Kind {
	switch {
	case c.bitmap != nil:
		return KindBitset
	case c.runs != nil:
		return KindRun
	default:
		return KindArray
	}
}

// Cardinality returns the number of offsets in the container.
func (c *Container) Cardinality() int {
	if c.runs != nil {
		n := 0
		for _, r := range c.runs {
			n += int(r.Last) - int(r.Start) + 1
		}
		return n
	}
	return c.n
}

// IsEmpty reports whether the container holds no offsets.
func (c *Container) IsEmpty() bool {
	return c.Cardinality() == 0
}

// Mapped reports whether the container is a read-only view into a mapped
// byte region.
func (c *Container) Mapped() bool {
	return c.mapped
}

// Add inserts an offset. Returns true if the offset was newly added.
// Only valid during slice construction; run containers reject Add since
// they only exist post-Optimize.
func (c *Container) Add(v uint16) bool {
	if c.runs != nil {
		panic("container: add on sealed run container")
	}
	if c.bitmap != nil {
		return c.bitmapAdd(v)
	}
	return c.arrayAdd(v)
}

func (c *Container) arrayAdd(v uint16) bool {
	// Fast path: appending in ascending order, the common case when a
	// builder feeds rows in row order.
	if c.n > 0 && c.array[c.n-1] < v {
		if c.n >= arrayMaxSize {
			c.convertToBitset()
			return c.bitmapAdd(v)
		}
		c.array = append(c.array, v)
		c.n++
		return true
	}
	if c.n == 0 {
		c.array = append(c.array, v)
		c.n++
		return true
	}

	i := search16(c.array, v)
	if i >= 0 {
		return false
	}
	if c.n >= arrayMaxSize {
		c.convertToBitset()
		return c.bitmapAdd(v)
	}
	i = -i - 1
	c.array = append(c.array, 0)
	copy(c.array[i+1:], c.array[i:])
	c.array[i] = v
	c.n++
	return true
}

func (c *Container) bitmapAdd(v uint16) bool {
	w, mask := int(v>>6), uint64(1)<<(v&63)
	if c.bitmap[w]&mask != 0 {
		return false
	}
	c.bitmap[w] |= mask
	c.n++
	return true
}

// Contains reports whether v is in the container.
func (c *Container) Contains(v uint16) bool {
	switch {
	case c.bitmap != nil:
		return c.bitmap[v>>6]&(uint64(1)<<(v&63)) != 0
	case c.runs != nil:
		_, ok := c.findRun(v)
		return ok
	default:
		return search16(c.array, v) >= 0
	}
}

// Rank returns the number of offsets less than or equal to v.
func (c *Container) Rank(v uint16) int {
	switch {
	case c.bitmap != nil:
		w := int(v >> 6)
		n := 0
		for i := 0; i < w; i++ {
			n += bits.OnesCount64(c.bitmap[i])
		}
		mask := uint64(1)<<(v&63) - 1
		mask |= mask + 1 // include bit v itself
		return n + bits.OnesCount64(c.bitmap[w]&mask)
	case c.runs != nil:
		n := 0
		for _, r := range c.runs {
			if v < r.Start {
				break
			}
			if v <= r.Last {
				n += int(v) - int(r.Start) + 1
				break
			}
			n += int(r.Last) - int(r.Start) + 1
		}
		return n
	default:
		i := search16(c.array, v)
		if i >= 0 {
			return i + 1
		}
		return -i - 1
	}
}

// findRun returns the index of the run containing v, if any.
func (c *Container) findRun(v uint16) (int, bool) {
	lo, hi := 0, len(c.runs)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		r := c.runs[mid]
		switch {
		case v < r.Start:
			hi = mid - 1
		case v > r.Last:
			lo = mid + 1
		default:
			return mid, true
		}
	}
	return lo, false
}

// Iterate calls fn for every offset in ascending order until fn returns
// false.
func (c *Container) Iterate(fn func(uint16) bool) {
	switch {
	case c.bitmap != nil:
		for w, word := range c.bitmap {
			for word != 0 {
				v := uint16(w<<6 + bits.TrailingZeros64(word))
				if !fn(v) {
					return
				}
				word &= word - 1
			}
		}
	case c.runs != nil:
		for _, r := range c.runs {
			for v := int(r.Start); v <= int(r.Last); v++ {
				if !fn(uint16(v)) {
					return
				}
			}
		}
	default:
		for _, v := range c.array {
			if !fn(v) {
				return
			}
		}
	}
}

// Offsets appends all offsets in ascending order to dst and returns it.
func (c *Container) Offsets(dst []uint16) []uint16 {
	c.Iterate(func(v uint16) bool {
		dst = append(dst, v)
		return true
	})
	return dst
}

// convertToBitset rewrites the container as a bitset.
func (c *Container) convertToBitset() {
	bitmap := make([]uint64, bitsetWords)
	if c.array != nil {
		for _, v := range c.array {
			bitmap[v>>6] |= uint64(1) << (v & 63)
		}
	} else {
		c.Iterate(func(v uint16) bool {
			bitmap[v>>6] |= uint64(1) << (v & 63)
			return true
		})
	}
	c.bitmap = bitmap
	c.array, c.runs = nil, nil
	c.mapped = false
}

// FillWords ORs the container's offsets into words, a 1024-word band
// bitset. The evaluator's scratch path uses this to avoid per-variant
// dispatch in inner loops.
func (c *Container) FillWords(words []uint64) {
	switch {
	case c.bitmap != nil:
		for i, w := range c.bitmap {
			words[i] |= w
		}
	case c.runs != nil:
		for _, r := range c.runs {
			setWordRange(words, int(r.Start), int(r.Last))
		}
	default:
		for _, v := range c.array {
			words[v>>6] |= uint64(1) << (v & 63)
		}
	}
}

// AndInto intersects words with the container in place.
func (c *Container) AndInto(words []uint64) {
	if c.bitmap != nil {
		for i := range words {
			words[i] &= c.bitmap[i]
		}
		return
	}
	var tmp [bitsetWords]uint64
	c.FillWords(tmp[:])
	for i := range words {
		words[i] &= tmp[i]
	}
}

// OrInto unions the container into words in place.
func (c *Container) OrInto(words []uint64) {
	c.FillWords(words)
}

// AndNotInto clears the container's offsets from words in place.
func (c *Container) AndNotInto(words []uint64) {
	switch {
	case c.bitmap != nil:
		for i, w := range c.bitmap {
			words[i] &^= w
		}
	case c.runs != nil:
		for _, r := range c.runs {
			clearWordRange(words, int(r.Start), int(r.Last))
		}
	default:
		for _, v := range c.array {
			words[v>>6] &^= uint64(1) << (v & 63)
		}
	}
}

// setWordRange sets bits [start, last] in words.
func setWordRange(words []uint64, start, last int) {
	sw, lw := start>>6, last>>6
	if sw == lw {
		words[sw] |= rangeMask(start&63, last&63)
		return
	}
	words[sw] |= ^uint64(0) << (start & 63)
	for w := sw + 1; w < lw; w++ {
		words[w] = ^uint64(0)
	}
	words[lw] |= ^uint64(0) >> (63 - last&63)
}

// clearWordRange clears bits [start, last] in words.
func clearWordRange(words []uint64, start, last int) {
	sw, lw := start>>6, last>>6
	if sw == lw {
		words[sw] &^= rangeMask(start&63, last&63)
		return
	}
	words[sw] &^= ^uint64(0) << (start & 63)
	for w := sw + 1; w < lw; w++ {
		words[w] = 0
	}
	words[lw] &^= ^uint64(0) >> (63 - last&63)
}

// rangeMask returns a word with bits [lo, hi] set, 0 <= lo <= hi <= 63.
func rangeMask(lo, hi int) uint64 {
	return (^uint64(0) >> (63 - hi + lo)) << lo
}

// FromWords builds a container from a 1024-word band bitset, picking the
// smallest representation for the observed density.
func FromWords(words []uint64) *Container {
	n := 0
	for _, w := range words {
		n += bits.OnesCount64(w)
	}
	c := &Container{n: n}
	if n == 0 {
		return c
	}
	c.bitmap = make([]uint64, bitsetWords)
	copy(c.bitmap, words)
	return c.Optimize()
}

// search16 returns the index of v in a, or the negated insertion point
// minus one when absent.
func search16(a []uint16, v uint16) int {
	n := len(a)
	if n == 0 {
		return -1
	}
	if a[n-1] == v {
		return n - 1
	}
	lo, hi := 0, n-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case a[mid] < v:
			lo = mid + 1
		case a[mid] > v:
			hi = mid - 1
		default:
			return mid
		}
	}
	return -(lo + 1)
}
