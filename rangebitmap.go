package rangebitmap

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// RangeBitmap is an immutable range index over an integer column. It is
// produced by Builder.Seal or loaded via FromBytes/Open and is safe for
// unlimited concurrent readers.
type RangeBitmap struct {
	cfg      config
	rowCount uint64
	min      uint64
	max      uint64
	bitWidth int
	slices   []*slice

	// Mapped structures track in-flight queries so Close can wait for
	// them before unmapping.
	closer   io.Closer
	closed   atomic.Bool
	inflight sync.WaitGroup
}

// Rows returns the total number of indexed rows.
func (rb *RangeBitmap) Rows() uint64 {
	return rb.rowCount
}

// Min returns the smallest value of the declared domain.
func (rb *RangeBitmap) Min() uint64 {
	return rb.min
}

// Max returns the largest value of the declared domain.
func (rb *RangeBitmap) Max() uint64 {
	return rb.max
}

// BitWidth returns the number of bit-planes per slice.
func (rb *RangeBitmap) BitWidth() int {
	return rb.bitWidth
}

// Close releases the backing mapping, if any, after all in-flight
// queries complete. Queries started after Close fail with ErrClosed.
// Close is idempotent. Structures sealed in memory need no Close.
func (rb *RangeBitmap) Close() error {
	if rb.closed.Swap(true) {
		return nil
	}
	rb.inflight.Wait()
	if rb.closer != nil {
		return rb.closer.Close()
	}
	return nil
}

// acquire registers an in-flight query against Close.
func (rb *RangeBitmap) acquire() error {
	if rb.closed.Load() {
		return ErrClosed
	}
	rb.inflight.Add(1)
	if rb.closed.Load() {
		rb.inflight.Done()
		return ErrClosed
	}
	return nil
}

func (rb *RangeBitmap) release() {
	rb.inflight.Done()
}

// Eq returns the rows whose value equals code.
func (rb *RangeBitmap) Eq(code uint64) (*RowSet, error) {
	return rb.query("eq", qEq, code, nil)
}

// EqWithin is Eq restricted to the candidate rows in within. Bands with
// no candidate rows are skipped without touching any container.
func (rb *RangeBitmap) EqWithin(code uint64, within *RowSet) (*RowSet, error) {
	return rb.query("eq", qEq, code, within)
}

// Neq returns the rows whose value differs from code.
func (rb *RangeBitmap) Neq(code uint64) (*RowSet, error) {
	return rb.query("neq", qNeq, code, nil)
}

// NeqWithin is Neq restricted to the candidate rows in within.
func (rb *RangeBitmap) NeqWithin(code uint64, within *RowSet) (*RowSet, error) {
	return rb.query("neq", qNeq, code, within)
}

// Lt returns the rows whose value is less than code.
func (rb *RangeBitmap) Lt(code uint64) (*RowSet, error) {
	return rb.query("lt", qLt, code, nil)
}

// LtWithin is Lt restricted to the candidate rows in within.
func (rb *RangeBitmap) LtWithin(code uint64, within *RowSet) (*RowSet, error) {
	return rb.query("lt", qLt, code, within)
}

// Lte returns the rows whose value is less than or equal to code.
func (rb *RangeBitmap) Lte(code uint64) (*RowSet, error) {
	return rb.query("lte", qLte, code, nil)
}

// LteWithin is Lte restricted to the candidate rows in within.
func (rb *RangeBitmap) LteWithin(code uint64, within *RowSet) (*RowSet, error) {
	return rb.query("lte", qLte, code, within)
}

// Gt returns the rows whose value is greater than code.
func (rb *RangeBitmap) Gt(code uint64) (*RowSet, error) {
	return rb.query("gt", qGt, code, nil)
}

// GtWithin is Gt restricted to the candidate rows in within.
func (rb *RangeBitmap) GtWithin(code uint64, within *RowSet) (*RowSet, error) {
	return rb.query("gt", qGt, code, within)
}

// Gte returns the rows whose value is greater than or equal to code.
func (rb *RangeBitmap) Gte(code uint64) (*RowSet, error) {
	return rb.query("gte", qGte, code, nil)
}

// GteWithin is Gte restricted to the candidate rows in within.
func (rb *RangeBitmap) GteWithin(code uint64, within *RowSet) (*RowSet, error) {
	return rb.query("gte", qGte, code, within)
}

// Between returns the rows whose value lies in [lo, hi], evaluated in a
// single pass over the bit-planes.
func (rb *RangeBitmap) Between(lo, hi uint64) (*RowSet, error) {
	return rb.queryBetween(lo, hi, nil)
}

// BetweenWithin is Between restricted to the candidate rows in within.
func (rb *RangeBitmap) BetweenWithin(lo, hi uint64, within *RowSet) (*RowSet, error) {
	return rb.queryBetween(lo, hi, within)
}

// EqCardinality returns the number of rows whose value equals code
// without materializing a result set.
func (rb *RangeBitmap) EqCardinality(code uint64) (uint64, error) {
	return rb.queryCardinality("eq", qEq, code, nil)
}

// EqCardinalityWithin counts Eq matches among the candidate rows.
func (rb *RangeBitmap) EqCardinalityWithin(code uint64, within *RowSet) (uint64, error) {
	return rb.queryCardinality("eq", qEq, code, within)
}

// NeqCardinality returns the number of rows whose value differs from
// code.
func (rb *RangeBitmap) NeqCardinality(code uint64) (uint64, error) {
	return rb.queryCardinality("neq", qNeq, code, nil)
}

// NeqCardinalityWithin counts Neq matches among the candidate rows.
func (rb *RangeBitmap) NeqCardinalityWithin(code uint64, within *RowSet) (uint64, error) {
	return rb.queryCardinality("neq", qNeq, code, within)
}

// LtCardinality returns the number of rows whose value is less than
// code.
func (rb *RangeBitmap) LtCardinality(code uint64) (uint64, error) {
	return rb.queryCardinality("lt", qLt, code, nil)
}

// LtCardinalityWithin counts Lt matches among the candidate rows.
func (rb *RangeBitmap) LtCardinalityWithin(code uint64, within *RowSet) (uint64, error) {
	return rb.queryCardinality("lt", qLt, code, within)
}

// LteCardinality returns the number of rows whose value is at most code.
func (rb *RangeBitmap) LteCardinality(code uint64) (uint64, error) {
	return rb.queryCardinality("lte", qLte, code, nil)
}

// LteCardinalityWithin counts Lte matches among the candidate rows.
func (rb *RangeBitmap) LteCardinalityWithin(code uint64, within *RowSet) (uint64, error) {
	return rb.queryCardinality("lte", qLte, code, within)
}

// GtCardinality returns the number of rows whose value is greater than
// code.
func (rb *RangeBitmap) GtCardinality(code uint64) (uint64, error) {
	return rb.queryCardinality("gt", qGt, code, nil)
}

// GtCardinalityWithin counts Gt matches among the candidate rows.
func (rb *RangeBitmap) GtCardinalityWithin(code uint64, within *RowSet) (uint64, error) {
	return rb.queryCardinality("gt", qGt, code, within)
}

// GteCardinality returns the number of rows whose value is at least
// code.
func (rb *RangeBitmap) GteCardinality(code uint64) (uint64, error) {
	return rb.queryCardinality("gte", qGte, code, nil)
}

// GteCardinalityWithin counts Gte matches among the candidate rows.
func (rb *RangeBitmap) GteCardinalityWithin(code uint64, within *RowSet) (uint64, error) {
	return rb.queryCardinality("gte", qGte, code, within)
}

// BetweenCardinality returns the number of rows whose value lies in
// [lo, hi].
func (rb *RangeBitmap) BetweenCardinality(lo, hi uint64) (uint64, error) {
	return rb.queryBetweenCardinality(lo, hi, nil)
}

// BetweenCardinalityWithin counts Between matches among the candidate
// rows.
func (rb *RangeBitmap) BetweenCardinalityWithin(lo, hi uint64, within *RowSet) (uint64, error) {
	return rb.queryBetweenCardinality(lo, hi, within)
}

func (rb *RangeBitmap) query(op string, kind qKind, code uint64, within *RowSet) (*RowSet, error) {
	start := time.Now()
	q, err := rb.makeQuery(kind, code)
	if err != nil {
		rb.cfg.metrics.RecordQuery(op, time.Since(start), err)
		return nil, err
	}
	if err := rb.acquire(); err != nil {
		rb.cfg.metrics.RecordQuery(op, time.Since(start), err)
		return nil, err
	}
	defer rb.release()

	out := rb.evaluate(q, within)
	rb.cfg.metrics.RecordQuery(op, time.Since(start), nil)
	rb.cfg.logger.LogQuery(context.Background(), op, code, out.Cardinality())
	return out, nil
}

func (rb *RangeBitmap) queryCardinality(op string, kind qKind, code uint64, within *RowSet) (uint64, error) {
	start := time.Now()
	q, err := rb.makeQuery(kind, code)
	if err != nil {
		rb.cfg.metrics.RecordQuery(op, time.Since(start), err)
		return 0, err
	}
	if err := rb.acquire(); err != nil {
		rb.cfg.metrics.RecordQuery(op, time.Since(start), err)
		return 0, err
	}
	defer rb.release()

	n := rb.evaluateCardinality(q, within)
	rb.cfg.metrics.RecordQuery(op, time.Since(start), nil)
	rb.cfg.logger.LogQuery(context.Background(), op, code, n)
	return n, nil
}

func (rb *RangeBitmap) queryBetween(lo, hi uint64, within *RowSet) (*RowSet, error) {
	start := time.Now()
	q, err := rb.makeBetween(lo, hi)
	if err != nil {
		rb.cfg.metrics.RecordQuery("between", time.Since(start), err)
		return nil, err
	}
	if err := rb.acquire(); err != nil {
		rb.cfg.metrics.RecordQuery("between", time.Since(start), err)
		return nil, err
	}
	defer rb.release()

	out := rb.evaluate(q, within)
	rb.cfg.metrics.RecordQuery("between", time.Since(start), nil)
	rb.cfg.logger.LogQuery(context.Background(), "between", hi, out.Cardinality())
	return out, nil
}

func (rb *RangeBitmap) queryBetweenCardinality(lo, hi uint64, within *RowSet) (uint64, error) {
	start := time.Now()
	q, err := rb.makeBetween(lo, hi)
	if err != nil {
		rb.cfg.metrics.RecordQuery("between", time.Since(start), err)
		return 0, err
	}
	if err := rb.acquire(); err != nil {
		rb.cfg.metrics.RecordQuery("between", time.Since(start), err)
		return 0, err
	}
	defer rb.release()

	n := rb.evaluateCardinality(q, within)
	rb.cfg.metrics.RecordQuery("between", time.Since(start), nil)
	return n, nil
}
