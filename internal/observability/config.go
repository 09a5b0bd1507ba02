package observability

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the observability configuration of a filter service.
type Config struct {
	// TracerProvider is the OpenTelemetry tracer provider.
	// If nil, tracing is disabled.
	TracerProvider trace.TracerProvider

	// MeterProvider is the OpenTelemetry meter provider.
	// If nil, metrics collection is disabled.
	MeterProvider metric.MeterProvider

	ServiceName    string
	ServiceVersion string

	// EnableDetailedDBTracing adds a span per GORM statement.
	EnableDetailedDBTracing bool

	// EnableFilterTracing records the raw filter text on filter spans.
	// Filters may carry user data, so it is off by default.
	EnableFilterTracing bool

	// EnableServerTiming adds a Server-Timing header to HTTP responses.
	EnableServerTiming bool

	tracer  *Tracer
	metrics *Metrics
}

// Option is a functional option for configuring observability.
type Option func(*Config)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) {
		c.MeterProvider = mp
	}
}

func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

func WithDetailedDBTracing() Option {
	return func(c *Config) {
		c.EnableDetailedDBTracing = true
	}
}

func WithFilterTracing() Option {
	return func(c *Config) {
		c.EnableFilterTracing = true
	}
}

func WithServerTiming() Option {
	return func(c *Config) {
		c.EnableServerTiming = true
	}
}

// NewConfig creates a configuration and initializes its tracer and metrics.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		ServiceName: "ameba",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.Initialize()
	return cfg
}

// Initialize builds the tracer and metrics from the providers. It must be
// called again after a provider is changed directly on the struct.
func (c *Config) Initialize() {
	if c.TracerProvider != nil {
		c.tracer = NewTracer(c.TracerProvider, c.ServiceName)
	} else {
		c.tracer = NewNoopTracer()
	}

	if c.MeterProvider != nil {
		c.metrics = NewMetrics(c.MeterProvider)
	} else {
		c.metrics = NewNoopMetrics()
	}
}

// Tracer returns the configured tracer, or a no-op tracer if not configured.
func (c *Config) Tracer() *Tracer {
	if c == nil || c.tracer == nil {
		return NewNoopTracer()
	}
	return c.tracer
}

// Metrics returns the configured metrics, or no-op metrics if not configured.
func (c *Config) Metrics() *Metrics {
	if c == nil || c.metrics == nil {
		return NewNoopMetrics()
	}
	return c.metrics
}

// IsEnabled returns true if a tracer or meter provider is configured.
func (c *Config) IsEnabled() bool {
	return c != nil && (c.TracerProvider != nil || c.MeterProvider != nil)
}

func (c *Config) ServerTimingEnabled() bool {
	return c != nil && c.EnableServerTiming
}

func (c *Config) FilterTracingEnabled() bool {
	return c != nil && c.EnableFilterTracing
}
