package observability

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanFilter  = "ameba.filter"
	SpanParse   = "ameba.parse"
	SpanSearch  = "ameba.search"
	SpanRequest = "ameba.request"
)

// Tracer wraps an OpenTelemetry tracer with filter specific span helpers.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

func NewTracer(tp trace.TracerProvider, serviceName string) *Tracer {
	return &Tracer{
		tracer:      tp.Tracer(TracerName),
		serviceName: serviceName,
	}
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartFilter starts the span covering compilation and application of one
// filter. An empty filter text is left off the span.
func (t *Tracer) StartFilter(ctx context.Context, entitySet, filter string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		EntitySetAttr(entitySet),
		OperationAttr(OpApplyFilter),
	}
	if filter != "" {
		attrs = append(attrs, FilterAttr(filter))
	}
	return t.tracer.Start(ctx, SpanFilter, trace.WithAttributes(attrs...))
}

func (t *Tracer) StartSearch(ctx context.Context, entitySet string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanSearch, trace.WithAttributes(
		EntitySetAttr(entitySet),
		OperationAttr(OpSearchSource),
	))
}

func (t *Tracer) StartParse(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanParse)
}

// StartRequest starts a span for an HTTP collection query.
func (t *Tracer) StartRequest(ctx context.Context, r *http.Request, requestID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanRequest, trace.WithAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.route", r.URL.Path),
		OperationAttr(OpQuery),
		RequestIDAttr(requestID),
	))
}

// SetHTTPStatus sets the HTTP status code on the current span.
func (t *Tracer) SetHTTPStatus(ctx context.Context, statusCode int) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("http.status_code", statusCode))
	if statusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	}
}

func (t *Tracer) StartDBQuery(ctx context.Context, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "db.query", trace.WithAttributes(
		attribute.String("db.operation", operation),
	))
}

// RecordError records err on span. Nil errors are ignored.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// LoggerWithTrace returns a logger enriched with trace context.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}
