// Package observability provides OpenTelemetry instrumentation for filter
// compilation, filter application and the database queries they produce.
//
// Everything is opt-in. Without providers the no-op implementations are used.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	TracerName = "github.com/icode/ameba"
	MeterName  = "github.com/icode/ameba"
)

// Attribute keys.
const (
	AttrEntitySet       = "ameba.entity_set"
	AttrEntityType      = "ameba.entity_type"
	AttrOperation       = "ameba.operation"
	AttrFilter          = "ameba.filter"
	AttrExpressionCount = "ameba.filter.expressions"
	AttrCacheHit        = "ameba.parse.cache_hit"
	AttrResultCount     = "ameba.result.count"
	AttrRequestID       = "ameba.request_id"
	AttrErrorKind       = "ameba.error.kind"
)

// Operation types for the ameba.operation attribute.
const (
	OpApplyFilter  = "apply_filter"
	OpSearchSource = "search_source"
	OpQuery        = "query"
)

// Error kinds for the ameba.error.kind attribute.
const (
	ErrorKindSyntax        = "syntax"
	ErrorKindUnprocessable = "unprocessable"
	ErrorKindInternal      = "internal"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldEntitySet   = "entity_set"
	LogFieldFilter      = "filter"
	LogFieldTraceID     = "trace_id"
	LogFieldSpanID      = "span_id"
	LogFieldRequestID   = "request_id"
	LogFieldDuration    = "duration_ms"
	LogFieldResultCount = "result_count"
	LogFieldError       = "error"
)

func EntitySetAttr(name string) attribute.KeyValue {
	return attribute.String(AttrEntitySet, name)
}

func EntityTypeAttr(name string) attribute.KeyValue {
	return attribute.String(AttrEntityType, name)
}

func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// FilterAttr carries the raw filter text. Only set when filter tracing is on.
func FilterAttr(filter string) attribute.KeyValue {
	return attribute.String(AttrFilter, filter)
}

func ExpressionCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrExpressionCount, n)
}

func CacheHitAttr(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

func ResultCountAttr(count int64) attribute.KeyValue {
	return attribute.Int64(AttrResultCount, count)
}

func RequestIDAttr(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

func ErrorKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}
