package rangebitmap

import (
	"math/bits"
)

// bandWords is the number of uint64 words in one band's scratch bitset.
const bandWords = BandRows / 64

// qKind names the public predicates. Internally every range predicate
// canonicalizes to a "less than or equal" walk (kindLte) or its band
// complement (kindNotLte); see makeQuery.
type qKind int

const (
	qEq qKind = iota
	qNeq
	qLt
	qLte
	qGt
	qGte
)

type queryKind int

const (
	kindEq queryKind = iota
	kindNeq
	kindLte
	kindNotLte
	kindBetween
)

// query is a validated, canonicalized predicate. Thresholds are offsets
// from the domain minimum. For kindLte, hasT=false means a statically
// empty result; for kindNotLte it means all rows. For kindBetween, t2 is
// the upper offset and t the lower offset minus one (hasT=false when the
// lower bound is the domain minimum).
type query struct {
	kind queryKind
	t    uint64
	t2   uint64
	hasT bool
}

// makeQuery validates code against the domain and canonicalizes the
// predicate. Validation happens before any slice is touched; evaluation
// cannot fail afterwards.
func (rb *RangeBitmap) makeQuery(kind qKind, code uint64) (query, error) {
	if code < rb.min || code > rb.max {
		return query{}, &ErrCodeOutOfDomain{Code: code, Min: rb.min, Max: rb.max}
	}
	t := code - rb.min
	switch kind {
	case qEq:
		return query{kind: kindEq, t: t}, nil
	case qNeq:
		return query{kind: kindNeq, t: t}, nil
	case qLte:
		return query{kind: kindLte, t: t, hasT: true}, nil
	case qLt:
		if t == 0 {
			return query{kind: kindLte}, nil // nothing below the minimum
		}
		return query{kind: kindLte, t: t - 1, hasT: true}, nil
	case qGt:
		return query{kind: kindNotLte, t: t, hasT: true}, nil
	default: // qGte
		if t == 0 {
			return query{kind: kindNotLte}, nil // everything
		}
		return query{kind: kindNotLte, t: t - 1, hasT: true}, nil
	}
}

func (rb *RangeBitmap) makeBetween(lo, hi uint64) (query, error) {
	if lo < rb.min || lo > rb.max {
		return query{}, &ErrCodeOutOfDomain{Code: lo, Min: rb.min, Max: rb.max}
	}
	if hi < lo || hi > rb.max {
		return query{}, &ErrCodeOutOfDomain{Code: hi, Min: rb.min, Max: rb.max}
	}
	q := query{kind: kindBetween, t2: hi - rb.min}
	if lo > rb.min {
		q.t = lo - rb.min - 1
		q.hasT = true
	}
	return q, nil
}

// bandScratch holds the per-band working bitsets. One instance is reused
// across all bands of a sequential query; parallel evaluation pools them
// per worker.
type bandScratch struct {
	out  [bandWords]uint64
	tmp  [bandWords]uint64
	seed [bandWords]uint64
}

func zeroWords(words []uint64) {
	for i := range words {
		words[i] = 0
	}
}

// fillValid sets the first validRows bits.
func fillValid(words []uint64, validRows int) {
	full := validRows >> 6
	for i := 0; i < full; i++ {
		words[i] = ^uint64(0)
	}
	for i := full; i < len(words); i++ {
		words[i] = 0
	}
	if rem := validRows & 63; rem != 0 {
		words[full] = uint64(1)<<rem - 1
	}
}

func popcountWords(words []uint64) uint64 {
	var n int
	for _, w := range words {
		n += bits.OnesCount64(w)
	}
	return uint64(n)
}

// eqWalk refines words, seeded with the candidate rows, down to the rows
// whose raw offset equals t. A container for bit i holds the rows whose
// raw offset has bit i clear (the encoded complement sets that bit), so
// a set query bit removes the container's rows and a clear query bit
// intersects with them. An absent container means every row in the band
// has that raw bit set: a no-op for a set query bit, an empty result for
// a clear one.
func (rb *RangeBitmap) eqWalk(s *slice, t uint64, words []uint64) {
	for bit := 0; bit < rb.bitWidth; bit++ {
		c := s.container(bit)
		if t&(1<<bit) != 0 {
			if c != nil {
				c.AndNotInto(words)
			}
			continue
		}
		if c == nil {
			zeroWords(words)
			return
		}
		c.AndInto(words)
	}
}

// lteWalk refines words, seeded with all valid rows of the band, down to
// the rows whose raw offset is at most t. Walking from the least
// significant bit up, the invariant is that words holds the rows whose
// offset is at most t on the bits processed so far: a set query bit
// admits every row with that bit clear (union with the container), a
// clear query bit demands the bit clear and a winning lower prefix
// (intersection). The union step can revive rows after an intersection
// emptied the band, so the walk never exits early.
func (rb *RangeBitmap) lteWalk(s *slice, t uint64, words []uint64) {
	for bit := 0; bit < rb.bitWidth; bit++ {
		c := s.container(bit)
		if t&(1<<bit) != 0 {
			if c != nil {
				c.OrInto(words)
			}
			continue
		}
		if c == nil {
			zeroWords(words)
			continue
		}
		c.AndInto(words)
	}
}

// evalBand writes the band's matching rows into sc.out, masked to the
// band's valid rows and, when seeded is true, to the candidate rows
// already present in sc.seed.
func (rb *RangeBitmap) evalBand(q query, s *slice, validRows int, seeded bool, sc *bandScratch) {
	seed := sc.seed[:]
	if !seeded {
		fillValid(seed, validRows)
	}
	out := sc.out[:]

	switch q.kind {
	case kindEq:
		copy(out, seed)
		rb.eqWalk(s, q.t, out)

	case kindNeq:
		tmp := sc.tmp[:]
		copy(tmp, seed)
		rb.eqWalk(s, q.t, tmp)
		for i := range out {
			out[i] = seed[i] &^ tmp[i]
		}

	case kindLte:
		if !q.hasT {
			zeroWords(out)
			return
		}
		fillValid(out, validRows)
		rb.lteWalk(s, q.t, out)
		for i := range out {
			out[i] &= seed[i]
		}

	case kindNotLte:
		if !q.hasT {
			copy(out, seed)
			return
		}
		tmp := sc.tmp[:]
		fillValid(tmp, validRows)
		rb.lteWalk(s, q.t, tmp)
		for i := range out {
			out[i] = seed[i] &^ tmp[i]
		}

	case kindBetween:
		fillValid(out, validRows)
		rb.lteWalk(s, q.t2, out)
		if q.hasT {
			tmp := sc.tmp[:]
			fillValid(tmp, validRows)
			rb.lteWalk(s, q.t, tmp)
			for i := range out {
				out[i] &^= tmp[i]
			}
		}
		for i := range out {
			out[i] &= seed[i]
		}
	}
}

// bandRowCount returns the number of valid rows in the given band.
func (rb *RangeBitmap) bandRowCount(band int) int {
	base := uint64(band) * BandRows
	if rb.rowCount-base >= BandRows {
		return BandRows
	}
	return int(rb.rowCount - base)
}

// seedBand prepares sc.seed from the pushdown context for one band and
// reports whether the band has any candidate rows. A band with none is
// skipped without a single container read.
func seedBand(within *RowSet, band int, validRows int, sc *bandScratch) bool {
	zeroWords(sc.seed[:])
	n := within.fillBand(uint64(band)*BandRows, uint64(validRows), sc.seed[:])
	return n > 0
}

// evaluate walks slices in ascending band order, producing a row-ordered
// result set.
func (rb *RangeBitmap) evaluate(q query, within *RowSet) *RowSet {
	out := NewRowSet()
	var sc bandScratch
	var buf []uint32
	for band, s := range rb.slices {
		validRows := rb.bandRowCount(band)
		seeded := within != nil
		if seeded && !seedBand(within, band, validRows, &sc) {
			continue
		}
		rb.evalBand(q, s, validRows, seeded, &sc)
		buf = appendRows(buf[:0], sc.out[:], uint32(band)*BandRows)
		if len(buf) > 0 {
			out.rb.AddMany(buf)
		}
	}
	return out
}

// evaluateCardinality is the counting twin of evaluate: the same walk,
// but each band contributes a popcount instead of materialized rows.
func (rb *RangeBitmap) evaluateCardinality(q query, within *RowSet) uint64 {
	var total uint64
	var sc bandScratch
	for band, s := range rb.slices {
		validRows := rb.bandRowCount(band)
		seeded := within != nil
		if seeded && !seedBand(within, band, validRows, &sc) {
			continue
		}
		rb.evalBand(q, s, validRows, seeded, &sc)
		total += popcountWords(sc.out[:])
	}
	return total
}

// appendRows collects the set bits of words as absolute row ids.
func appendRows(dst []uint32, words []uint64, base uint32) []uint32 {
	for i, word := range words {
		rowBase := base + uint32(i)<<6
		for word != 0 {
			dst = append(dst, rowBase+uint32(bits.TrailingZeros64(word)))
			word &= word - 1
		}
	}
	return dst
}
