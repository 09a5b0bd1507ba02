package observability

import (
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func NewNoopTracer() *Tracer {
	return &Tracer{
		tracer: tracenoop.NewTracerProvider().Tracer(""),
	}
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("")
	m := &Metrics{}

	m.filterCount, _ = meter.Int64Counter(MetricFilterCount)             //nolint:errcheck
	m.filterDuration, _ = meter.Float64Histogram(MetricFilterDuration)   //nolint:errcheck
	m.errorCount, _ = meter.Int64Counter(MetricFilterErrors)             //nolint:errcheck
	m.resultCount, _ = meter.Int64Histogram(MetricResultCount)           //nolint:errcheck
	m.dbQueryDuration, _ = meter.Float64Histogram(MetricDBQueryDuration) //nolint:errcheck
	m.requestDuration, _ = meter.Float64Histogram(MetricRequestDuration) //nolint:errcheck

	return m
}
