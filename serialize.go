package rangebitmap

import (
	"context"
	"fmt"
	"io"
	"math/bits"
	"os"
	"time"

	"github.com/hupe1980/rangebitmap/internal/container"
	"github.com/hupe1980/rangebitmap/internal/mmap"
	"github.com/hupe1980/rangebitmap/persistence"
)

// On-disk layout:
//
//	header   64-byte persistence.FileHeader
//	dirs     per band: mask uint64, then one 24-byte directory entry
//	         per set mask bit, in ascending bit order
//	payloads raw container payloads, each 8-byte aligned, located by
//	         absolute (offset, length) in the directory entries
//
// The header checksum covers everything after the header, so the
// directory and payloads are written twice: once through a checksummer
// and once to the destination.

var zeroPad [persistence.PayloadAlign]byte

// sliceLayout holds the directory entries for one band's containers.
type sliceLayout struct {
	mask    uint64
	entries []persistence.DirectoryEntry
}

// layout assigns an aligned file position to every container payload.
func (rb *RangeBitmap) layout() ([]sliceLayout, int64) {
	dirSize := int64(persistence.HeaderSize)
	for _, s := range rb.slices {
		dirSize += 8 + int64(persistence.EntrySize)*int64(len(s.containers))
	}

	layouts := make([]sliceLayout, len(rb.slices))
	pos := persistence.AlignUp(dirSize)
	for i, s := range rb.slices {
		entries := make([]persistence.DirectoryEntry, len(s.containers))
		for j, c := range s.containers {
			pos = persistence.AlignUp(pos)
			entries[j] = persistence.DirectoryEntry{
				Kind:        uint32(c.Kind()),
				Cardinality: uint32(c.Cardinality()),
				Offset:      uint64(pos),
				Length:      uint64(c.EncodedSize()),
			}
			pos += int64(entries[j].Length)
		}
		layouts[i] = sliceLayout{mask: s.mask, entries: entries}
	}

	return layouts, pos
}

// writeBody writes the directory and payload sections. pos tracking is
// absolute from the start of the file; the body begins at HeaderSize.
func (rb *RangeBitmap) writeBody(w io.Writer, layouts []sliceLayout) (int64, error) {
	pos := int64(persistence.HeaderSize)

	var entryBuf [persistence.EntrySize]byte
	for _, l := range layouts {
		var maskBuf [8]byte
		for i := 0; i < 8; i++ {
			maskBuf[i] = byte(l.mask >> (8 * i))
		}
		if _, err := w.Write(maskBuf[:]); err != nil {
			return pos, err
		}
		pos += 8

		for i := range l.entries {
			if err := l.entries[i].Encode(entryBuf[:]); err != nil {
				return pos, err
			}
			if _, err := w.Write(entryBuf[:]); err != nil {
				return pos, err
			}
			pos += persistence.EntrySize
		}
	}

	for si, s := range rb.slices {
		for ci, c := range s.containers {
			target := int64(layouts[si].entries[ci].Offset)
			if pad := target - pos; pad > 0 {
				if _, err := w.Write(zeroPad[:pad]); err != nil {
					return pos, err
				}
				pos += pad
			}
			n, err := c.WriteTo(w)
			pos += n
			if err != nil {
				return pos, err
			}
		}
	}

	return pos, nil
}

// WriteTo serializes the range bitmap in the persisted layout. The
// result can be reloaded with FromBytes or Open without decoding the
// container payloads.
func (rb *RangeBitmap) WriteTo(w io.Writer) (int64, error) {
	layouts, _ := rb.layout()

	// First pass computes the body checksum for the header.
	cw := persistence.NewChecksumWriter(io.Discard)
	if _, err := rb.writeBody(cw, layouts); err != nil {
		return 0, err
	}

	header := persistence.FileHeader{
		Magic:      persistence.MagicNumber,
		Version:    persistence.Version,
		BitWidth:   uint8(rb.bitWidth),
		RowCount:   rb.rowCount,
		MinValue:   rb.min,
		MaxValue:   rb.max,
		SliceCount: uint32(len(rb.slices)),
		Checksum:   cw.Sum(),
	}

	var headerBuf [persistence.HeaderSize]byte
	if err := header.Encode(headerBuf[:]); err != nil {
		return 0, err
	}
	if _, err := w.Write(headerBuf[:]); err != nil {
		return 0, err
	}

	pos, err := rb.writeBody(w, layouts)
	if err != nil {
		return pos, err
	}

	return pos, nil
}

// WriteFile serializes the range bitmap to a file at path.
func (rb *RangeBitmap) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := rb.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// FromBytes reconstructs a range bitmap from a serialized byte region
// without copying container payloads: containers are remapped directly
// over data, which must stay valid and unmodified for the lifetime of
// the returned structure.
func FromBytes(data []byte, opts ...Option) (*RangeBitmap, error) {
	start := time.Now()

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rb, err := fromBytes(data, cfg)
	cfg.metrics.RecordLoad(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	cfg.logger.LogLoad(context.Background(), "", rb.rowCount, nil)
	return rb, nil
}

func fromBytes(data []byte, cfg config) (*RangeBitmap, error) {
	header, err := persistence.DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if err := persistence.Verify(data[persistence.HeaderSize:], header.Checksum); err != nil {
		return nil, err
	}

	wantSlices := uint32((header.RowCount + BandRows - 1) / BandRows)
	if header.SliceCount != wantSlices {
		return nil, fmt.Errorf("%w: %d slices for %d rows, want %d",
			persistence.ErrCorruptLayout, header.SliceCount, header.RowCount, wantSlices)
	}
	if int(header.BitWidth) != bitWidthFor(header.MinValue, header.MaxValue) {
		return nil, fmt.Errorf("%w: bit width %d does not match domain [%d, %d]",
			persistence.ErrCorruptLayout, header.BitWidth, header.MinValue, header.MaxValue)
	}

	slices := make([]*slice, header.SliceCount)
	pos := persistence.HeaderSize
	for i := range slices {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("%w: truncated slice directory", persistence.ErrCorruptLayout)
		}
		var mask uint64
		for b := 0; b < 8; b++ {
			mask |= uint64(data[pos+b]) << (8 * b)
		}
		pos += 8

		if int(header.BitWidth) < 64 && mask>>header.BitWidth != 0 {
			return nil, fmt.Errorf("%w: slice mask exceeds bit width", persistence.ErrCorruptLayout)
		}

		s := &slice{
			mask:       mask,
			containers: make([]*container.Container, 0, bits.OnesCount64(mask)),
		}
		for m := mask; m != 0; m &= m - 1 {
			entry, err := persistence.DecodeEntry(data[pos:])
			if err != nil {
				return nil, err
			}
			pos += persistence.EntrySize

			end := entry.Offset + entry.Length
			if entry.Offset < uint64(persistence.HeaderSize) || end < entry.Offset || end > uint64(len(data)) {
				return nil, fmt.Errorf("%w: container payload out of bounds", persistence.ErrCorruptLayout)
			}

			c, err := container.Remap(container.Kind(entry.Kind), int(entry.Cardinality), data[entry.Offset:end])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", persistence.ErrCorruptLayout, err)
			}
			s.containers = append(s.containers, c)
		}
		slices[i] = s
	}

	return &RangeBitmap{
		cfg:      cfg,
		rowCount: header.RowCount,
		min:      header.MinValue,
		max:      header.MaxValue,
		bitWidth: int(header.BitWidth),
		slices:   slices,
	}, nil
}

// Open memory-maps the file at path and reconstructs the range bitmap
// over the mapping. Close releases the mapping once all in-flight
// queries complete.
func Open(path string, opts ...Option) (*RangeBitmap, error) {
	start := time.Now()

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m, err := mmap.Open(path)
	if err != nil {
		cfg.metrics.RecordLoad(time.Since(start), err)
		cfg.logger.LogLoad(context.Background(), path, 0, err)
		return nil, err
	}

	rb, err := fromBytes(m.Data, cfg)
	cfg.metrics.RecordLoad(time.Since(start), err)
	if err != nil {
		m.Close()
		cfg.logger.LogLoad(context.Background(), path, 0, err)
		return nil, err
	}
	rb.closer = m

	cfg.logger.LogLoad(context.Background(), path, rb.rowCount, nil)
	return rb, nil
}
