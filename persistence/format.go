package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies range bitmap files (ASCII: "RBM1").
	MagicNumber = 0x52424D31
	// Version is the current file format version.
	Version = 0x00010000

	// HeaderSize is the fixed size of the file header in bytes.
	HeaderSize = 64
	// EntrySize is the size of one container directory entry in bytes.
	EntrySize = 24
	// PayloadAlign is the alignment of container payloads within the
	// file. Bitset payloads are remapped as []uint64, so payload
	// offsets must be 8-byte aligned for zero-copy access.
	PayloadAlign = 8
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrCorruptLayout  = errors.New("corrupt file layout")
)

// FileHeader is the 64-byte header at the start of every range bitmap
// file. Layout optimized for mmap compatibility and cache alignment.
type FileHeader struct {
	Magic      uint32 // 0x52424D31 ("RBM1")
	Version    uint32 // File format version
	BitWidth   uint8  // Bits per encoded value, 1..64
	Padding    [7]byte
	RowCount   uint64 // Total number of rows
	MinValue   uint64 // Lower bound of the value domain
	MaxValue   uint64 // Upper bound of the value domain
	SliceCount uint32 // Number of 65536-row bands
	Checksum   uint32 // CRC32 of everything after the header
	Reserved   [16]byte
}

// Encode writes the header into a HeaderSize-byte buffer.
func (h *FileHeader) Encode(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: header buffer too small", ErrCorruptLayout)
	}

	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	buf[8] = h.BitWidth
	copy(buf[9:16], h.Padding[:])
	binary.LittleEndian.PutUint64(buf[16:24], h.RowCount)
	binary.LittleEndian.PutUint64(buf[24:32], h.MinValue)
	binary.LittleEndian.PutUint64(buf[32:40], h.MaxValue)
	binary.LittleEndian.PutUint32(buf[40:44], h.SliceCount)
	binary.LittleEndian.PutUint32(buf[44:48], h.Checksum)
	copy(buf[48:64], h.Reserved[:])

	return nil
}

// DecodeHeader parses and validates a file header. The checksum is not
// verified here; callers verify it against the body separately.
func DecodeHeader(buf []byte) (*FileHeader, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: file shorter than header", ErrCorruptLayout)
	}

	h := &FileHeader{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		Version:    binary.LittleEndian.Uint32(buf[4:8]),
		BitWidth:   buf[8],
		RowCount:   binary.LittleEndian.Uint64(buf[16:24]),
		MinValue:   binary.LittleEndian.Uint64(buf[24:32]),
		MaxValue:   binary.LittleEndian.Uint64(buf[32:40]),
		SliceCount: binary.LittleEndian.Uint32(buf[40:44]),
		Checksum:   binary.LittleEndian.Uint32(buf[44:48]),
	}
	copy(h.Padding[:], buf[9:16])
	copy(h.Reserved[:], buf[48:64])

	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, h.Version)
	}
	if h.BitWidth == 0 || h.BitWidth > 64 {
		return nil, fmt.Errorf("%w: bit width %d", ErrCorruptLayout, h.BitWidth)
	}
	if h.MinValue > h.MaxValue {
		return nil, fmt.Errorf("%w: min value exceeds max value", ErrCorruptLayout)
	}

	return h, nil
}

// DirectoryEntry locates one container payload within the file body.
// Offsets are relative to the start of the file.
type DirectoryEntry struct {
	Kind        uint32 // Container representation
	Cardinality uint32 // Number of offsets in the container
	Offset      uint64 // Payload position from start of file
	Length      uint64 // Payload length in bytes
}

// Encode writes the entry into an EntrySize-byte buffer.
func (e *DirectoryEntry) Encode(buf []byte) error {
	if len(buf) < EntrySize {
		return fmt.Errorf("%w: entry buffer too small", ErrCorruptLayout)
	}

	binary.LittleEndian.PutUint32(buf[0:4], e.Kind)
	binary.LittleEndian.PutUint32(buf[4:8], e.Cardinality)
	binary.LittleEndian.PutUint64(buf[8:16], e.Offset)
	binary.LittleEndian.PutUint64(buf[16:24], e.Length)

	return nil
}

// DecodeEntry parses one directory entry.
func DecodeEntry(buf []byte) (DirectoryEntry, error) {
	if len(buf) < EntrySize {
		return DirectoryEntry{}, fmt.Errorf("%w: truncated directory entry", ErrCorruptLayout)
	}

	return DirectoryEntry{
		Kind:        binary.LittleEndian.Uint32(buf[0:4]),
		Cardinality: binary.LittleEndian.Uint32(buf[4:8]),
		Offset:      binary.LittleEndian.Uint64(buf[8:16]),
		Length:      binary.LittleEndian.Uint64(buf[16:24]),
	}, nil
}

// AlignUp rounds n up to the next multiple of PayloadAlign.
func AlignUp(n int64) int64 {
	return (n + PayloadAlign - 1) &^ (PayloadAlign - 1)
}
