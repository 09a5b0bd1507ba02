package ameba

import (
	"log/slog"
	"time"

	"github.com/icode/ameba/internal/filter"
	"github.com/icode/ameba/internal/i18n"
	"github.com/icode/ameba/internal/observability"
	"github.com/icode/ameba/internal/params"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

// DefaultParseCacheSize is the number of parsed filters kept per service.
const DefaultParseCacheSize = 1024

// ObservabilityConfig configures tracing, metrics and Server-Timing.
// Everything is disabled when left at its zero value.
type ObservabilityConfig struct {
	// TracerProvider is the OpenTelemetry tracer provider.
	// If nil, tracing is disabled.
	TracerProvider trace.TracerProvider

	// MeterProvider is the OpenTelemetry meter provider.
	// If nil, metrics collection is disabled.
	MeterProvider metric.MeterProvider

	ServiceName    string
	ServiceVersion string

	// EnableDetailedDBTracing adds a span per database statement.
	EnableDetailedDBTracing bool

	// EnableFilterTracing records the filter text on filter spans.
	EnableFilterTracing bool

	// EnableServerTiming adds a Server-Timing header to list responses.
	EnableServerTiming bool
}

func (c ObservabilityConfig) build() *observability.Config {
	opts := []observability.Option{
		observability.WithTracerProvider(c.TracerProvider),
		observability.WithMeterProvider(c.MeterProvider),
		observability.WithServiceVersion(c.ServiceVersion),
	}
	if c.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(c.ServiceName))
	}
	if c.EnableDetailedDBTracing {
		opts = append(opts, observability.WithDetailedDBTracing())
	}
	if c.EnableFilterTracing {
		opts = append(opts, observability.WithFilterTracing())
	}
	if c.EnableServerTiming {
		opts = append(opts, observability.WithServerTiming())
	}
	return observability.NewConfig(opts...)
}

type config struct {
	logger         *slog.Logger
	observability  ObservabilityConfig
	messages       *i18n.Messages
	maxDepth       int
	parseCacheSize int
	transformers   []filter.Transformer
	dateParser     params.DateParser
	defaultLimit   int
	maxLimit       int
}

func newConfig() *config {
	return &config{
		logger:         slog.Default(),
		messages:       i18n.Default(),
		parseCacheSize: DefaultParseCacheSize,
		dateParser:     params.ParseDate,
		defaultLimit:   DefaultLimit,
		maxLimit:       DefaultMaxLimit,
	}
}

// Option configures a Service.
type Option func(*config)

// WithLogger sets the service logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObservability(cfg ObservabilityConfig) Option {
	return func(c *config) {
		c.observability = cfg
	}
}

// WithLanguage sets the language of error messages for requests without an
// Accept-Language header, e.g. "en" or "zh-Hans". Unsupported languages
// fall back to the closest supported one; malformed tags are ignored.
func WithLanguage(tag string) Option {
	return func(c *config) {
		if t, err := language.Parse(tag); err == nil {
			c.messages = i18n.New(t)
		}
	}
}

// WithMaxDepth limits the call nesting depth of a filter. Zero keeps the
// parser default.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithParseCacheSize sets the number of cached parse trees. A negative
// size disables the cache.
func WithParseCacheSize(size int) Option {
	return func(c *config) {
		c.parseCacheSize = size
	}
}

// WithTransformers adds transformers tried before the built-in ones, in
// order. They can add operators or replace built-in ones.
func WithTransformers(transformers ...Transformer) Option {
	return func(c *config) {
		c.transformers = append(c.transformers, transformers...)
	}
}

// WithDateParser replaces the parser of date(...) literals.
func WithDateParser(parse func(string) (time.Time, error)) Option {
	return func(c *config) {
		if parse != nil {
			c.dateParser = parse
		}
	}
}

// WithLimits sets the default and maximum page size of the list endpoint.
// Non-positive values keep the current setting.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(c *config) {
		if defaultLimit > 0 {
			c.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			c.maxLimit = maxLimit
		}
		if c.defaultLimit > c.maxLimit {
			c.defaultLimit = c.maxLimit
		}
	}
}
