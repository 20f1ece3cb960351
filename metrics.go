package rangebitmap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring systems
// like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    queryHistogram *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordQuery(op string, duration time.Duration, err error) {
//	    p.queryHistogram.WithLabelValues(op).Observe(duration.Seconds())
//	}
type MetricsCollector interface {
	// RecordAppend is called after each append operation.
	RecordAppend(err error)

	// RecordSeal is called when a builder seals, with the total row
	// count and build duration.
	RecordSeal(rows uint64, duration time.Duration)

	// RecordQuery is called after each query. op names the predicate
	// ("eq", "lte", ...), duration is the evaluation time.
	RecordQuery(op string, duration time.Duration, err error)

	// RecordLoad is called after loading a persisted structure.
	RecordLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(error)                       {}
func (NoopMetricsCollector) RecordSeal(uint64, time.Duration)         {}
func (NoopMetricsCollector) RecordQuery(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external
// dependencies.
type BasicMetricsCollector struct {
	AppendCount     atomic.Int64
	AppendErrors    atomic.Int64
	SealCount       atomic.Int64
	SealedRows      atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
}

func (c *BasicMetricsCollector) RecordAppend(err error) {
	c.AppendCount.Add(1)
	if err != nil {
		c.AppendErrors.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordSeal(rows uint64, _ time.Duration) {
	c.SealCount.Add(1)
	c.SealedRows.Add(int64(rows))
}

func (c *BasicMetricsCollector) RecordQuery(_ string, duration time.Duration, err error) {
	c.QueryCount.Add(1)
	c.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		c.QueryErrors.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordLoad(_ time.Duration, err error) {
	c.LoadCount.Add(1)
	if err != nil {
		c.LoadErrors.Add(1)
	}
}
