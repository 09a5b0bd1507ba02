package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithServiceName("catalog"),
		WithServiceVersion("1.2.3"),
		WithDetailedDBTracing(),
		WithFilterTracing(),
	)

	if cfg.ServiceName != "catalog" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "catalog")
	}
	if cfg.ServiceVersion != "1.2.3" {
		t.Errorf("ServiceVersion = %q, want %q", cfg.ServiceVersion, "1.2.3")
	}
	if !cfg.EnableDetailedDBTracing {
		t.Error("EnableDetailedDBTracing should be true")
	}
	if !cfg.FilterTracingEnabled() {
		t.Error("FilterTracingEnabled() should be true")
	}
	if cfg.IsEnabled() {
		t.Error("IsEnabled() should be false without providers")
	}
	if cfg.Tracer() == nil || cfg.Metrics() == nil {
		t.Error("NewConfig should initialize no-op tracer and metrics")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.ServiceName != "ameba" {
		t.Errorf("default ServiceName = %q, want %q", cfg.ServiceName, "ameba")
	}
	if cfg.ServerTimingEnabled() {
		t.Error("ServerTimingEnabled() should default to false")
	}
	if cfg.FilterTracingEnabled() {
		t.Error("FilterTracingEnabled() should default to false")
	}
}

func TestConfigWithProviders(t *testing.T) {
	cfg := NewConfig(
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(noop.NewMeterProvider()),
	)
	if !cfg.IsEnabled() {
		t.Error("IsEnabled() should be true with providers")
	}
	if cfg.Tracer().serviceName != "ameba" {
		t.Errorf("tracer serviceName = %q, want %q", cfg.Tracer().serviceName, "ameba")
	}
}

func TestConfigNil(t *testing.T) {
	var cfg *Config
	if cfg.Tracer() == nil {
		t.Error("nil config should return a no-op tracer")
	}
	if cfg.Metrics() == nil {
		t.Error("nil config should return no-op metrics")
	}
	if cfg.IsEnabled() || cfg.ServerTimingEnabled() || cfg.FilterTracingEnabled() {
		t.Error("nil config should report everything disabled")
	}
}

func TestConfigNotInitialized(t *testing.T) {
	cfg := &Config{}
	if cfg.Tracer() == nil || cfg.Metrics() == nil {
		t.Error("uninitialized config should fall back to no-ops")
	}
}

func TestAttributes(t *testing.T) {
	tests := []struct {
		key  string
		got  string
		want string
	}{
		{AttrEntitySet, EntitySetAttr("Customers").Value.AsString(), "Customers"},
		{AttrEntityType, EntityTypeAttr("Customer").Value.AsString(), "Customer"},
		{AttrOperation, OperationAttr(OpApplyFilter).Value.AsString(), "apply_filter"},
		{AttrFilter, FilterAttr("id(1)").Value.AsString(), "id(1)"},
		{AttrRequestID, RequestIDAttr("r1").Value.AsString(), "r1"},
		{AttrErrorKind, ErrorKindAttr(ErrorKindUnprocessable).Value.AsString(), "unprocessable"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, tt.got, tt.want)
		}
	}
	if ExpressionCountAttr(3).Value.AsInt64() != 3 {
		t.Error("ExpressionCountAttr should carry the count")
	}
	if !CacheHitAttr(true).Value.AsBool() {
		t.Error("CacheHitAttr should carry the flag")
	}
	if ResultCountAttr(7).Value.AsInt64() != 7 {
		t.Error("ResultCountAttr should carry the count")
	}
}

func TestStartServerTimingNoContext(t *testing.T) {
	m := StartServerTiming(context.Background(), "filter")
	if m == nil {
		t.Fatal("expected non-nil metric")
	}
	m.Stop() // Should not panic

	var nilMetric *ServerTimingMetric
	nilMetric.Stop() // Should not panic
}

func TestServerTimingHeader(t *testing.T) {
	handler := servertiming.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithDBTimeAccumulator(r.Context())
		m := StartServerTimingWithDesc(ctx, "filter", "Filter")
		m.Stop()
		AddDBTime(ctx, 2*time.Millisecond)
		RecordDBTiming(ctx)
		w.WriteHeader(http.StatusNoContent)
	}), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	header := rec.Header().Get(servertiming.HeaderKey)
	if !strings.Contains(header, `filter;desc="Filter"`) && !strings.Contains(header, "filter;desc=Filter") {
		t.Errorf("expected filter metric in %q", header)
	}
	if !strings.Contains(header, "db;") {
		t.Errorf("expected db metric in %q", header)
	}
}

func TestRecordDBTimingWithoutHeader(t *testing.T) {
	// Should not panic
	RecordDBTiming(context.Background())
	RecordDBTiming(WithDBTimeAccumulator(context.Background()))
}

func TestDBTimeAccumulator(t *testing.T) {
	acc := &DBTimeAccumulator{}
	acc.Add(10 * time.Millisecond)
	acc.Add(20 * time.Millisecond)
	acc.Add(30 * time.Millisecond)

	if got, want := acc.Duration(), 60*time.Millisecond; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDBTimeAccumulatorConcurrent(t *testing.T) {
	acc := &DBTimeAccumulator{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				acc.Add(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if got, want := acc.Duration(), 1000*time.Millisecond; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAddDBTime(t *testing.T) {
	if acc := DBTimeAccumulatorFromContext(context.Background()); acc != nil {
		t.Error("expected nil accumulator from background context")
	}
	AddDBTime(context.Background(), time.Millisecond) // Should not panic

	ctx := WithDBTimeAccumulator(context.Background())
	AddDBTime(ctx, 50*time.Millisecond)
	AddDBTime(ctx, 100*time.Millisecond)

	acc := DBTimeAccumulatorFromContext(ctx)
	if acc == nil {
		t.Fatal("accumulator should not be nil")
	}
	if got, want := acc.Duration(), 150*time.Millisecond; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

type callbackWidget struct {
	ID   int `gorm:"primarykey"`
	Name string
}

func openWidgets(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&callbackWidget{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestServerTimingCallbacksIntegration(t *testing.T) {
	db := openWidgets(t)
	if err := RegisterServerTimingCallbacks(db); err != nil {
		t.Fatalf("failed to register callbacks: %v", err)
	}

	ctx := WithDBTimeAccumulator(context.Background())
	if err := db.WithContext(ctx).Create(&callbackWidget{ID: 1, Name: "Test"}).Error; err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	acc := DBTimeAccumulatorFromContext(ctx)
	first := acc.Duration()
	if first == 0 {
		t.Error("expected non-zero database time after Create")
	}

	var widgets []callbackWidget
	if err := db.WithContext(ctx).Find(&widgets).Error; err != nil {
		t.Fatalf("failed to find: %v", err)
	}
	if acc.Duration() <= first {
		t.Errorf("expected duration to increase after Find, got before=%v after=%v", first, acc.Duration())
	}
}

func TestRegisterGORMCallbacks(t *testing.T) {
	db := openWidgets(t)

	// Disabled configurations register nothing.
	if err := RegisterGORMCallbacks(db, nil); err != nil {
		t.Fatalf("nil config: %v", err)
	}
	if err := RegisterGORMCallbacks(db, NewConfig(WithDetailedDBTracing())); err != nil {
		t.Fatalf("no provider: %v", err)
	}

	cfg := NewConfig(
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(noop.NewMeterProvider()),
		WithDetailedDBTracing(),
	)
	if err := RegisterGORMCallbacks(db, cfg); err != nil {
		t.Fatalf("failed to register callbacks: %v", err)
	}

	if err := db.Create(&callbackWidget{ID: 1, Name: "a"}).Error; err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	var count int64
	if err := db.Model(&callbackWidget{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
