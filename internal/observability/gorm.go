package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	gormSpanKey        = "ameba:gorm:span"
	gormStartTimeKey   = "ameba:gorm:start"
	gormTimingStartKey = "ameba:gorm:timing_start"
	gormTracingPrefix  = "ameba_tracing"
	gormTimingPrefix   = "ameba_server_timing"
)

// gormHook places a before/after pair around one of GORM's statement
// processors.
type gormHook struct {
	kind      string // callback name suffix and span name suffix
	operation string // db.operation attribute
	register  func(db *gorm.DB, name string, before bool, fn func(*gorm.DB)) error
}

var gormHooks = []gormHook{
	{"query", "SELECT", func(db *gorm.DB, name string, before bool, fn func(*gorm.DB)) error {
		if before {
			return db.Callback().Query().Before("gorm:query").Register(name, fn)
		}
		return db.Callback().Query().After("gorm:query").Register(name, fn)
	}},
	{"row", "ROW", func(db *gorm.DB, name string, before bool, fn func(*gorm.DB)) error {
		if before {
			return db.Callback().Row().Before("gorm:row").Register(name, fn)
		}
		return db.Callback().Row().After("gorm:row").Register(name, fn)
	}},
	{"raw", "RAW", func(db *gorm.DB, name string, before bool, fn func(*gorm.DB)) error {
		if before {
			return db.Callback().Raw().Before("gorm:raw").Register(name, fn)
		}
		return db.Callback().Raw().After("gorm:raw").Register(name, fn)
	}},
	{"create", "INSERT", func(db *gorm.DB, name string, before bool, fn func(*gorm.DB)) error {
		if before {
			return db.Callback().Create().Before("gorm:create").Register(name, fn)
		}
		return db.Callback().Create().After("gorm:create").Register(name, fn)
	}},
}

func registerHooks(db *gorm.DB, prefix string, before func(h gormHook) func(*gorm.DB), after func(h gormHook) func(*gorm.DB)) error {
	for _, h := range gormHooks {
		if err := h.register(db, prefix+":before_"+h.kind, true, before(h)); err != nil {
			return err
		}
		if err := h.register(db, prefix+":after_"+h.kind, false, after(h)); err != nil {
			return err
		}
	}
	return nil
}

// RegisterGORMCallbacks adds a span per statement and records statement
// durations. It does nothing unless detailed DB tracing is enabled and a
// tracer provider is configured.
func RegisterGORMCallbacks(db *gorm.DB, cfg *Config) error {
	if cfg == nil || cfg.TracerProvider == nil || !cfg.EnableDetailedDBTracing {
		return nil
	}
	tracer := cfg.Tracer()
	return registerHooks(db, gormTracingPrefix,
		func(h gormHook) func(*gorm.DB) {
			return func(db *gorm.DB) { startSpan(db, tracer, "db."+h.kind) }
		},
		func(h gormHook) func(*gorm.DB) {
			return func(db *gorm.DB) { endSpan(db, tracer, cfg.Metrics(), h.operation) }
		},
	)
}

// RegisterServerTimingCallbacks adds the duration of every statement to the
// DBTimeAccumulator of the statement context. It works without OpenTelemetry.
func RegisterServerTimingCallbacks(db *gorm.DB) error {
	return registerHooks(db, gormTimingPrefix,
		func(gormHook) func(*gorm.DB) { return beforeTiming },
		func(gormHook) func(*gorm.DB) { return afterTiming },
	)
}

func beforeTiming(db *gorm.DB) {
	db.InstanceSet(gormTimingStartKey, time.Now())
}

func afterTiming(db *gorm.DB) {
	v, ok := db.InstanceGet(gormTimingStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	if db.Statement != nil && db.Statement.Context != nil {
		AddDBTime(db.Statement.Context, time.Since(start))
	}
}

func startSpan(db *gorm.DB, tracer *Tracer, spanName string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := tracer.StartSpan(ctx, spanName,
		attribute.String("db.system", db.Dialector.Name()),
	)

	db.Statement.Context = ctx
	db.InstanceSet(gormSpanKey, span)
	db.InstanceSet(gormStartTimeKey, time.Now())
}

func endSpan(db *gorm.DB, tracer *Tracer, metrics *Metrics, operation string) {
	v, ok := db.InstanceGet(gormSpanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if table := db.Statement.Table; table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	tracer.RecordError(span, db.Error)

	if v, ok := db.InstanceGet(gormStartTimeKey); ok {
		if start, ok := v.(time.Time); ok {
			metrics.RecordDBQuery(db.Statement.Context, operation, time.Since(start))
		}
	}
}
