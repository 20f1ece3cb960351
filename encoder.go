package rangebitmap

import (
	"math/bits"
)

// bitWidthFor returns the number of bit-planes needed for the domain
// [min, max]: ceil(log2(max-min+1)), at least 1.
func bitWidthFor(min, max uint64) int {
	w := bits.Len64(max - min)
	if w == 0 {
		return 1
	}
	return w
}

// encode range encodes a value against the domain anchor: the offset from
// the minimum, complemented within bitWidth bits. The complement makes
// the bit-planes monotone under "less than or equal": a row's encoded
// bit i is set exactly when its raw offset bit i is clear, so small
// offsets (the common case near the anchor) fill the high planes with
// full containers that collapse to single runs.
func encode(value, min uint64, bitWidth int) uint64 {
	return ^(value - min) & widthMask(bitWidth)
}

// widthMask returns a mask with the low bitWidth bits set.
func widthMask(bitWidth int) uint64 {
	if bitWidth >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<bitWidth - 1
}
