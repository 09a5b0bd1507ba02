package observability

import (
	"context"
	"sync/atomic"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
)

// ServerTimingMetric wraps a metric of the request's Server-Timing header.
type ServerTimingMetric struct {
	metric *servertiming.Metric
}

// Stop stops the timing metric.
func (m *ServerTimingMetric) Stop() {
	if m != nil && m.metric != nil {
		m.metric.Stop()
	}
}

// StartServerTiming starts a metric named name. Without a Server-Timing
// header in ctx the returned metric does nothing.
func StartServerTiming(ctx context.Context, name string) *ServerTimingMetric {
	return StartServerTimingWithDesc(ctx, name, "")
}

func StartServerTimingWithDesc(ctx context.Context, name, description string) *ServerTimingMetric {
	timing := servertiming.FromContext(ctx)
	if timing == nil {
		return &ServerTimingMetric{}
	}
	m := timing.NewMetric(name)
	if description != "" {
		m.WithDesc(description)
	}
	return &ServerTimingMetric{metric: m.Start()}
}

// DBTimeAccumulator sums the time spent in database statements of one
// request. Safe for concurrent use.
type DBTimeAccumulator struct {
	nanos atomic.Int64
}

func (a *DBTimeAccumulator) Add(d time.Duration) {
	a.nanos.Add(int64(d))
}

func (a *DBTimeAccumulator) Duration() time.Duration {
	return time.Duration(a.nanos.Load())
}

type dbTimeKey struct{}

// WithDBTimeAccumulator returns a context carrying a fresh accumulator.
func WithDBTimeAccumulator(ctx context.Context) context.Context {
	return context.WithValue(ctx, dbTimeKey{}, &DBTimeAccumulator{})
}

func DBTimeAccumulatorFromContext(ctx context.Context) *DBTimeAccumulator {
	acc, _ := ctx.Value(dbTimeKey{}).(*DBTimeAccumulator)
	return acc
}

// AddDBTime adds d to the accumulator in ctx, if any.
func AddDBTime(ctx context.Context, d time.Duration) {
	if acc := DBTimeAccumulatorFromContext(ctx); acc != nil {
		acc.Add(d)
	}
}

// RecordDBTiming adds the accumulated database time of ctx as a "db" entry
// to the Server-Timing header in ctx.
func RecordDBTiming(ctx context.Context) {
	timing := servertiming.FromContext(ctx)
	acc := DBTimeAccumulatorFromContext(ctx)
	if timing == nil || acc == nil {
		return
	}
	m := timing.NewMetric("db").WithDesc("Database")
	m.Duration = acc.Duration()
}
