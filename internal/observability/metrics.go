package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricFilterCount     = "ameba.filter.count"
	MetricFilterDuration  = "ameba.filter.duration"
	MetricFilterErrors    = "ameba.filter.error.count"
	MetricResultCount     = "ameba.result.count"
	MetricDBQueryDuration = "ameba.db.query.duration"
	MetricRequestDuration = "ameba.request.duration"
)

// Metrics holds the metric instruments of a filter service.
type Metrics struct {
	filterCount     metric.Int64Counter
	filterDuration  metric.Float64Histogram
	errorCount      metric.Int64Counter
	resultCount     metric.Int64Histogram
	dbQueryDuration metric.Float64Histogram
	requestDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on a meter from mp. An instrument that
// cannot be created with its description falls back to a bare one.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}
	var err error

	m.filterCount, err = meter.Int64Counter(
		MetricFilterCount,
		metric.WithDescription("Number of filters applied"),
		metric.WithUnit("{filter}"),
	)
	if err != nil {
		m.filterCount, _ = meter.Int64Counter(MetricFilterCount)
	}

	m.filterDuration, err = meter.Float64Histogram(
		MetricFilterDuration,
		metric.WithDescription("Time spent compiling and applying filters in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.filterDuration, _ = meter.Float64Histogram(MetricFilterDuration)
	}

	m.errorCount, err = meter.Int64Counter(
		MetricFilterErrors,
		metric.WithDescription("Number of rejected filters"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter(MetricFilterErrors)
	}

	m.resultCount, err = meter.Int64Histogram(
		MetricResultCount,
		metric.WithDescription("Number of rows returned by filtered queries"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		m.resultCount, _ = meter.Int64Histogram(MetricResultCount)
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		MetricDBQueryDuration,
		metric.WithDescription("Duration of database statements in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram(MetricDBQueryDuration)
	}

	m.requestDuration, err = meter.Float64Histogram(
		MetricRequestDuration,
		metric.WithDescription("Duration of HTTP queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.requestDuration, _ = meter.Float64Histogram(MetricRequestDuration)
	}

	return m
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// RecordFilter records one successfully applied filter.
func (m *Metrics) RecordFilter(ctx context.Context, entitySet, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(
		EntitySetAttr(entitySet),
		OperationAttr(operation),
	)
	m.filterCount.Add(ctx, 1, attrs)
	m.filterDuration.Record(ctx, millis(duration), attrs)
}

// RecordError records a rejected filter.
func (m *Metrics) RecordError(ctx context.Context, entitySet, operation, errorKind string) {
	m.errorCount.Add(ctx, 1, metric.WithAttributes(
		EntitySetAttr(entitySet),
		OperationAttr(operation),
		ErrorKindAttr(errorKind),
	))
}

func (m *Metrics) RecordResultCount(ctx context.Context, entitySet string, count int64) {
	m.resultCount.Record(ctx, count, metric.WithAttributes(EntitySetAttr(entitySet)))
}

func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	m.dbQueryDuration.Record(ctx, millis(duration), metric.WithAttributes(attribute.String("db.operation", operation)))
}

func (m *Metrics) RecordRequest(ctx context.Context, entitySet string, statusCode int, duration time.Duration) {
	m.requestDuration.Record(ctx, millis(duration), metric.WithAttributes(
		EntitySetAttr(entitySet),
		attribute.Int("http.status_code", statusCode),
	))
}
