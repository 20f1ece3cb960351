package rangebitmap

import (
	"math/bits"

	"github.com/hupe1980/rangebitmap/internal/container"
)

// BandRows is the number of rows covered by one horizontal slice.
const BandRows = 1 << 16

// slice is one horizontal band of up to BandRows rows. mask has bit i set
// iff the band has a non-empty container for bit-plane i; containers are
// stored for set mask bits only, in ascending bit order. An absent
// container means no row in the band has encoded bit i set.
type slice struct {
	mask       uint64
	containers []*container.Container
}

// container returns the band's container for bit-plane bit, or nil.
func (s *slice) container(bit int) *container.Container {
	if s.mask&(1<<bit) == 0 {
		return nil
	}
	idx := bits.OnesCount64(s.mask & (1<<bit - 1))
	return s.containers[idx]
}

// sliceBuilder accumulates one band during construction. Containers are
// allocated lazily per bit-plane.
type sliceBuilder struct {
	containers [64]*container.Container
	rows       int
}

func (sb *sliceBuilder) add(encoded uint64, offset uint16) {
	for e := encoded; e != 0; e &= e - 1 {
		bit := bits.TrailingZeros64(e)
		c := sb.containers[bit]
		if c == nil {
			c = container.New()
			sb.containers[bit] = c
		}
		c.Add(offset)
	}
	sb.rows++
}

// seal freezes the band into an immutable slice, optimizing every
// container's representation and dropping empty ones from the mask.
func (sb *sliceBuilder) seal(bitWidth int) *slice {
	s := &slice{}
	for bit := 0; bit < bitWidth; bit++ {
		c := sb.containers[bit]
		if c == nil || c.IsEmpty() {
			continue
		}
		s.mask |= 1 << bit
		s.containers = append(s.containers, c.Optimize())
	}
	return s
}

func (sb *sliceBuilder) reset() {
	for i := range sb.containers {
		sb.containers[i] = nil
	}
	sb.rows = 0
}
