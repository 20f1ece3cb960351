package persistence

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// Checksum utilities for file integrity verification.
//
// Uses CRC32 (IEEE polynomial) for fast, hardware-accelerated
// detection of storage corruption. CRC32 is NOT cryptographically
// secure; it only detects accidental corruption, not tampering.

// CRC32Table is the IEEE polynomial table for checksum computation.
var CRC32Table = crc32.MakeTable(crc32.IEEE)

// Checksum computes the CRC32 checksum of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// ChecksumWriter wraps an io.Writer and computes a running CRC32
// checksum of everything written through it.
type ChecksumWriter struct {
	w    io.Writer
	hash hash.Hash32
	n    int64
}

// NewChecksumWriter creates a new checksumming writer.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{
		w:    w,
		hash: crc32.New(CRC32Table),
	}
}

// Write implements io.Writer.
func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	if _, err := cw.hash.Write(p); err != nil {
		return 0, err
	}

	n, err := cw.w.Write(p)
	cw.n += int64(n)

	return n, err
}

// Sum returns the current checksum value.
func (cw *ChecksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

// Written returns the number of bytes written so far.
func (cw *ChecksumWriter) Written() int64 {
	return cw.n
}

// Verify checks that the computed checksum of data matches expected.
func Verify(data []byte, expected uint32) error {
	actual := Checksum(data)
	if actual != expected {
		return &ChecksumMismatchError{
			Expected: expected,
			Actual:   actual,
		}
	}
	return nil
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// IsChecksumMismatch returns true if err is a checksum mismatch error.
func IsChecksumMismatch(err error) bool {
	_, ok := err.(*ChecksumMismatchError)
	return ok
}
