package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// EncodedSize returns the serialized payload size in bytes for the
// container's current representation.
func (c *Container) EncodedSize() int {
	switch c.Kind() {
	case KindBitset:
		return BitsetBytes
	case KindRun:
		return 4 * len(c.runs)
	default:
		return 2 * len(c.array)
	}
}

// WriteTo writes the container payload to w in little-endian layout:
// arrays as packed uint16 offsets, bitsets as 1024 uint64 words, runs as
// (start,last) uint16 pairs. The kind and cardinality travel in the slice
// directory, not in the payload.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	switch c.Kind() {
	case KindBitset:
		buf := make([]byte, BitsetBytes)
		for i, word := range c.bitmap {
			binary.LittleEndian.PutUint64(buf[i*8:], word)
		}
		n, err := w.Write(buf)
		return int64(n), err
	case KindRun:
		buf := make([]byte, 4*len(c.runs))
		for i, r := range c.runs {
			binary.LittleEndian.PutUint16(buf[i*4:], r.Start)
			binary.LittleEndian.PutUint16(buf[i*4+2:], r.Last)
		}
		n, err := w.Write(buf)
		return int64(n), err
	default:
		buf := make([]byte, 2*len(c.array))
		for i, v := range c.array {
			binary.LittleEndian.PutUint16(buf[i*2:], v)
		}
		n, err := w.Write(buf)
		return int64(n), err
	}
}

// Remap wires a container directly over a serialized payload without
// decoding it. The returned container is a read-only view into data and
// stays valid only while data does. A payload whose alignment does not
// permit reinterpretation is copied instead.
func Remap(kind Kind, cardinality int, data []byte) (*Container, error) {
	if cardinality < 0 || cardinality > MaxCardinality {
		return nil, fmt.Errorf("container: cardinality %d out of range", cardinality)
	}
	switch kind {
	case KindArray:
		if len(data) != 2*cardinality {
			return nil, fmt.Errorf("container: array payload %d bytes, want %d", len(data), 2*cardinality)
		}
		if cardinality == 0 {
			return &Container{}, nil
		}
		if !aligned(data, 2) {
			return decodeArray(data, cardinality), nil
		}
		array := unsafe.Slice((*uint16)(unsafe.Pointer(&data[0])), cardinality)
		return &Container{n: cardinality, array: array, mapped: true}, nil

	case KindBitset:
		if len(data) != BitsetBytes {
			return nil, fmt.Errorf("container: bitset payload %d bytes, want %d", len(data), BitsetBytes)
		}
		if !aligned(data, 8) {
			return decodeBitset(data, cardinality), nil
		}
		bitmap := unsafe.Slice((*uint64)(unsafe.Pointer(&data[0])), bitsetWords)
		return &Container{n: cardinality, bitmap: bitmap, mapped: true}, nil

	case KindRun:
		if len(data)%4 != 0 {
			return nil, fmt.Errorf("container: run payload %d bytes not a multiple of 4", len(data))
		}
		if len(data) == 0 {
			return &Container{}, nil
		}
		if !aligned(data, 2) {
			return decodeRuns(data, cardinality), nil
		}
		runs := unsafe.Slice((*Run)(unsafe.Pointer(&data[0])), len(data)/4)
		return &Container{n: cardinality, runs: runs, mapped: true}, nil

	default:
		return nil, fmt.Errorf("container: invalid kind %d", kind)
	}
}

// Unmap copies a mapped container's payload onto the heap so it survives
// the backing region.
func (c *Container) Unmap() {
	if !c.mapped {
		return
	}
	if c.array != nil {
		tmp := make([]uint16, len(c.array))
		copy(tmp, c.array)
		c.array = tmp
	}
	if c.bitmap != nil {
		tmp := make([]uint64, len(c.bitmap))
		copy(tmp, c.bitmap)
		c.bitmap = tmp
	}
	if c.runs != nil {
		tmp := make([]Run, len(c.runs))
		copy(tmp, c.runs)
		c.runs = tmp
	}
	c.mapped = false
}

func aligned(data []byte, n uintptr) bool {
	return uintptr(unsafe.Pointer(&data[0]))%n == 0
}

func decodeArray(data []byte, cardinality int) *Container {
	array := make([]uint16, cardinality)
	for i := range array {
		array[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return &Container{n: cardinality, array: array}
}

func decodeBitset(data []byte, cardinality int) *Container {
	bitmap := make([]uint64, bitsetWords)
	for i := range bitmap {
		bitmap[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return &Container{n: cardinality, bitmap: bitmap}
}

func decodeRuns(data []byte, cardinality int) *Container {
	runs := make([]Run, len(data)/4)
	for i := range runs {
		runs[i].Start = binary.LittleEndian.Uint16(data[i*4:])
		runs[i].Last = binary.LittleEndian.Uint16(data[i*4+2:])
	}
	return &Container{n: cardinality, runs: runs}
}
