package container

import (
	"math/bits"
)

// Optimize re-chooses the cheapest representation for the container's
// current contents and returns the container. Intended for sealed
// containers; the decision compares serialized byte sizes: 2 bytes per
// array entry, a fixed 8192-byte bitset, 4 bytes per run.
func (c *Container) Optimize() *Container {
	n := c.Cardinality()
	if n == 0 {
		c.array, c.bitmap, c.runs = nil, nil, nil
		c.n = 0
		return c
	}

	runs := c.countRuns()
	arrayBytes := 2 * n
	runBytes := 4 * runs

	switch {
	case runBytes < arrayBytes && runBytes < BitsetBytes:
		c.convertToRuns(runs)
	case arrayBytes < BitsetBytes:
		c.convertToArray()
	default:
		if c.bitmap == nil {
			c.convertToBitset()
		}
	}
	c.n = n
	return c
}

// countRuns returns the number of maximal runs of consecutive offsets.
func (c *Container) countRuns() int {
	switch {
	case c.runs != nil:
		return len(c.runs)
	case c.bitmap != nil:
		// A run begins at every 01 transition. Count transitions per
		// word, accounting for carries across word boundaries.
		runs := 0
		var prev uint64 // last bit of the previous word
		for _, w := range c.bitmap {
			runs += bits.OnesCount64(w &^ (w<<1 | prev))
			prev = w >> 63
		}
		return runs
	default:
		runs := 0
		for i, v := range c.array {
			if i == 0 || v != c.array[i-1]+1 {
				runs++
			}
		}
		return runs
	}
}

func (c *Container) convertToArray() {
	if c.array != nil && !c.mapped {
		return
	}
	array := make([]uint16, 0, c.Cardinality())
	c.Iterate(func(v uint16) bool {
		array = append(array, v)
		return true
	})
	c.array = array
	c.bitmap, c.runs = nil, nil
	c.mapped = false
}

func (c *Container) convertToRuns(runCount int) {
	if c.runs != nil && !c.mapped {
		return
	}
	runs := make([]Run, 0, runCount)
	start, last := -1, -1
	c.Iterate(func(v uint16) bool {
		if start < 0 {
			start, last = int(v), int(v)
			return true
		}
		if int(v) == last+1 {
			last = int(v)
			return true
		}
		runs = append(runs, Run{Start: uint16(start), Last: uint16(last)})
		start, last = int(v), int(v)
		return true
	})
	if start >= 0 {
		runs = append(runs, Run{Start: uint16(start), Last: uint16(last)})
	}
	c.runs = runs
	c.array, c.bitmap = nil, nil
	c.mapped = false
}

// And returns the intersection of c and other as a new container in the
// smallest representation for the result.
func (c *Container) And(other *Container) *Container {
	var words [bitsetWords]uint64
	c.FillWords(words[:])
	other.AndInto(words[:])
	return FromWords(words[:])
}

// Or returns the union of c and other as a new container.
func (c *Container) Or(other *Container) *Container {
	var words [bitsetWords]uint64
	c.FillWords(words[:])
	other.FillWords(words[:])
	return FromWords(words[:])
}

// AndNot returns the difference c minus other as a new container.
func (c *Container) AndNot(other *Container) *Container {
	var words [bitsetWords]uint64
	c.FillWords(words[:])
	other.AndNotInto(words[:])
	return FromWords(words[:])
}

// Not returns the complement of c within the full 65536-offset band.
func (c *Container) Not() *Container {
	var words [bitsetWords]uint64
	c.FillWords(words[:])
	for i := range words {
		words[i] = ^words[i]
	}
	return FromWords(words[:])
}

// Equal reports whether two containers hold the same offsets, regardless
// of representation.
func (c *Container) Equal(other *Container) bool {
	if c.Cardinality() != other.Cardinality() {
		return false
	}
	var a, b [bitsetWords]uint64
	c.FillWords(a[:])
	other.FillWords(b[:])
	return a == b
}
