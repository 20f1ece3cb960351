package rangebitmap

import (
	"context"
	"time"
)

// Builder accumulates column values in row order and produces an
// immutable RangeBitmap via Seal. A builder is not safe for concurrent
// use; the structure it seals is.
type Builder struct {
	cfg      config
	min      uint64
	max      uint64
	bitWidth int

	cur    sliceBuilder
	slices []*slice
	rows   uint64
	sealed bool
	start  time.Time
}

// NewBuilder creates a builder for values in the declared domain
// [min, max]. The domain fixes the structure's bit width up front, which
// streaming slice construction requires; values outside it fail Append
// with ErrValueOutOfRange.
func NewBuilder(min, max uint64, opts ...Option) (*Builder, error) {
	if min > max {
		return nil, ErrInvalidDomain
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{
		cfg:      cfg,
		min:      min,
		max:      max,
		bitWidth: bitWidthFor(min, max),
		start:    time.Now(),
	}, nil
}

// Append indexes the next row's value. Rows are implicitly numbered in
// append order starting at 0.
func (b *Builder) Append(value uint64) error {
	err := b.append(value)
	b.cfg.metrics.RecordAppend(err)
	return err
}

// AppendAt indexes the value for an explicitly numbered row. The row must
// be exactly the next row in sequence; the structure does not support
// random insertion.
func (b *Builder) AppendAt(row uint32, value uint64) error {
	if uint64(row) != b.rows {
		err := &ErrRowOutOfOrder{Row: row, Expected: uint32(b.rows)}
		b.cfg.metrics.RecordAppend(err)
		return err
	}
	return b.Append(value)
}

// AppendMany indexes values in order, stopping at the first failure.
func (b *Builder) AppendMany(values []uint64) error {
	for _, v := range values {
		if err := b.Append(v); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) append(value uint64) error {
	if b.sealed {
		return ErrSealed
	}
	if value < b.min || value > b.max {
		return &ErrValueOutOfRange{Value: value, Min: b.min, Max: b.max}
	}

	encoded := encode(value, b.min, b.bitWidth)
	b.cur.add(encoded, uint16(b.rows&(BandRows-1)))
	b.rows++

	if b.cur.rows == BandRows {
		b.slices = append(b.slices, b.cur.seal(b.bitWidth))
		b.cur.reset()
	}
	return nil
}

// Rows returns the number of rows appended so far.
func (b *Builder) Rows() uint64 {
	return b.rows
}

// Seal finalizes the current partial band and returns the immutable
// queryable structure. The builder cannot be appended to afterwards.
func (b *Builder) Seal() (*RangeBitmap, error) {
	if b.sealed {
		return nil, ErrSealed
	}
	b.sealed = true

	if b.cur.rows > 0 {
		b.slices = append(b.slices, b.cur.seal(b.bitWidth))
		b.cur.reset()
	}

	rb := &RangeBitmap{
		cfg:      b.cfg,
		rowCount: b.rows,
		min:      b.min,
		max:      b.max,
		bitWidth: b.bitWidth,
		slices:   b.slices,
	}
	b.slices = nil

	b.cfg.metrics.RecordSeal(rb.rowCount, time.Since(b.start))
	b.cfg.logger.LogSeal(context.Background(), rb.rowCount, rb.bitWidth, len(rb.slices))
	return rb, nil
}
