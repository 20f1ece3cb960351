package rangebitmap

// Option configures a Builder or a loaded RangeBitmap.
type Option func(*config)

type config struct {
	logger  *Logger
	metrics MetricsCollector
}

func defaultConfig() config {
	return config{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
}

// WithLogger sets the logger used for seal, load and query logging.
func WithLogger(logger *Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(c *config) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}
