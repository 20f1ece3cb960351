package rangebitmap

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ParallelEvaluator evaluates predicates with bands fanned out across a
// bounded worker pool. Band evaluation is independent of every other
// band, so workers write into disjoint per-band results that are merged
// in band order afterwards; outputs are identical to the sequential
// methods. Cancellation is cooperative at band granularity.
type ParallelEvaluator struct {
	rb      *RangeBitmap
	workers int
	scratch sync.Pool
}

// Parallel returns an evaluator running queries across up to workers
// goroutines. workers <= 0 selects GOMAXPROCS.
func (rb *RangeBitmap) Parallel(workers int) *ParallelEvaluator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ParallelEvaluator{
		rb:      rb,
		workers: workers,
		scratch: sync.Pool{New: func() any { return new(bandScratch) }},
	}
}

// Eq returns the rows whose value equals code. within may be nil.
func (p *ParallelEvaluator) Eq(ctx context.Context, code uint64, within *RowSet) (*RowSet, error) {
	return p.run(ctx, qEq, code, within)
}

// Neq returns the rows whose value differs from code. within may be nil.
func (p *ParallelEvaluator) Neq(ctx context.Context, code uint64, within *RowSet) (*RowSet, error) {
	return p.run(ctx, qNeq, code, within)
}

// Lt returns the rows whose value is less than code. within may be nil.
func (p *ParallelEvaluator) Lt(ctx context.Context, code uint64, within *RowSet) (*RowSet, error) {
	return p.run(ctx, qLt, code, within)
}

// Lte returns the rows whose value is at most code. within may be nil.
func (p *ParallelEvaluator) Lte(ctx context.Context, code uint64, within *RowSet) (*RowSet, error) {
	return p.run(ctx, qLte, code, within)
}

// Gt returns the rows whose value is greater than code. within may be
// nil.
func (p *ParallelEvaluator) Gt(ctx context.Context, code uint64, within *RowSet) (*RowSet, error) {
	return p.run(ctx, qGt, code, within)
}

// Gte returns the rows whose value is at least code. within may be nil.
func (p *ParallelEvaluator) Gte(ctx context.Context, code uint64, within *RowSet) (*RowSet, error) {
	return p.run(ctx, qGte, code, within)
}

// Between returns the rows whose value lies in [lo, hi]. within may be
// nil.
func (p *ParallelEvaluator) Between(ctx context.Context, lo, hi uint64, within *RowSet) (*RowSet, error) {
	q, err := p.rb.makeBetween(lo, hi)
	if err != nil {
		return nil, err
	}
	return p.evaluate(ctx, q, within)
}

func (p *ParallelEvaluator) run(ctx context.Context, kind qKind, code uint64, within *RowSet) (*RowSet, error) {
	q, err := p.rb.makeQuery(kind, code)
	if err != nil {
		return nil, err
	}
	return p.evaluate(ctx, q, within)
}

func (p *ParallelEvaluator) evaluate(ctx context.Context, q query, within *RowSet) (*RowSet, error) {
	rb := p.rb
	if err := rb.acquire(); err != nil {
		return nil, err
	}
	defer rb.release()

	partial := make([]*RowSet, len(rb.slices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for band := range rb.slices {
		band := band
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sc := p.scratch.Get().(*bandScratch)
			defer p.scratch.Put(sc)

			validRows := rb.bandRowCount(band)
			seeded := within != nil
			if seeded && !seedBand(within, band, validRows, sc) {
				return nil
			}
			rb.evalBand(q, rb.slices[band], validRows, seeded, sc)

			rows := appendRows(nil, sc.out[:], uint32(band)*BandRows)
			if len(rows) > 0 {
				rs := NewRowSet()
				rs.rb.AddMany(rows)
				partial[band] = rs
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A parent cancellation that lands before any band is submitted
	// breaks the loop without a goroutine error; surface it here.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := NewRowSet()
	for _, rs := range partial {
		if rs != nil {
			out.Or(rs)
		}
	}
	return out, nil
}
