package ameba

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
)

func customerIDs(t *testing.T, q *gorm.DB) []uint {
	t.Helper()
	var rows []Customer
	if err := q.Order("id").Find(&rows).Error; err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	ids := []uint{}
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestNewServiceRequiresDB(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("NewService(nil) should fail")
	}
}

func TestRegisterEntity(t *testing.T) {
	service, _ := setupTestService(t)

	if got, want := service.EntitySets(), []string{"Customers", "Orders"}; !reflect.DeepEqual(got, want) {
		t.Errorf("EntitySets() = %v, want %v", got, want)
	}
	if err := service.RegisterEntity(&Customer{}); err == nil {
		t.Error("registering Customer twice should fail")
	}
	if err := service.RegisterEntity("not a model"); err == nil {
		t.Error("registering a non-struct should fail")
	}
}

func TestApplyFilter(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		filter string
		want   []uint
	}{
		{"", []uint{1, 2, 3}},
		{"   ", []uint{1, 2, 3}},
		{"age.ge(18)", []uint{1, 3}},
		{"vip.eq(true),age.lt(40)", []uint{1}},
		{"or(name.startsWith('B'), age.gt(50))", []uint{2, 3}},
		{"name.contains('o')", []uint{2, 3}},
		{"orders.filter(status.eq('paid'), total.gt(100))", []uint{1}},
		{"orders.status.eq('void')", []uint{1}},
		{"orders.isNull()", []uint{3}},
		{"id.in(orders.select('customerId', status.eq('paid')))", []uint{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			q, err := service.ApplyFilter(ctx, nil, "Customers", tt.filter)
			if err != nil {
				t.Fatalf("ApplyFilter(%q) error = %v", tt.filter, err)
			}
			if got := customerIDs(t, q); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ApplyFilter(%q) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestApplyFilterOnGivenDB(t *testing.T) {
	service, db := setupTestService(t)

	q, err := service.ApplyFilter(context.Background(), db.Where("vip = ?", true), "Customers", "age.gt(40)")
	if err != nil {
		t.Fatalf("ApplyFilter() error = %v", err)
	}
	if got, want := customerIDs(t, q), []uint{3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyFilter() = %v, want %v", got, want)
	}
}

func TestApplyFilterErrors(t *testing.T) {
	service, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		entitySet string
		filter    string
		target    error
	}{
		{"unknown entity set", "Widgets", "id(1)", ErrEntitySetNotFound},
		{"entity set is case sensitive", "customers", "", ErrEntitySetNotFound},
		{"unterminated call", "Customers", "age.gt(", ErrQuerySyntax},
		{"unknown operator", "Customers", "age.around(3)", ErrQuerySyntax},
		{"missing arguments", "Customers", "age.between(1)", ErrQuerySyntax},
		{"unknown property", "Customers", "height.gt(1)", ErrUnprocessableEntity},
		{"hidden property", "Customers", "secret.eq('a')", ErrUnprocessableEntity},
		{"unknown nested property", "Customers", "orders.filter(weight.gt(1))", ErrUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ApplyFilter(ctx, nil, tt.entitySet, tt.filter)
			if !errors.Is(err, tt.target) {
				t.Errorf("ApplyFilter(%q) error = %v, want %v", tt.filter, err, tt.target)
			}
		})
	}
}

func TestApplyFilterReportsAllUnknownProperties(t *testing.T) {
	service, _ := setupTestService(t)

	_, err := service.ApplyFilter(context.Background(), nil, "Customers", "height.gt(1),weight.lt(2),height.lt(9)")
	var unprocessable *UnprocessableEntityError
	if !errors.As(err, &unprocessable) {
		t.Fatalf("expected UnprocessableEntityError, got %v", err)
	}
	if want := []string{"height", "weight"}; !reflect.DeepEqual(unprocessable.Properties, want) {
		t.Errorf("Properties = %v, want %v", unprocessable.Properties, want)
	}
}

func TestSearchSource(t *testing.T) {
	service, _ := setupTestService(t)

	body, err := service.SearchSource(context.Background(), "Customers", "age.gt(18),vip.eq(true)")
	if err != nil {
		t.Fatalf("SearchSource() error = %v", err)
	}

	var got, want interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid JSON %s: %v", body, err)
	}
	expected := `{"query":{"bool":{"must":[{"range":{"age":{"gt":18}}},{"term":{"vip":true}}]}}}`
	if err := json.Unmarshal([]byte(expected), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SearchSource() = %s, want %s", body, expected)
	}

	if _, err := service.SearchSource(context.Background(), "Customers", "height.gt(1)"); !IsUnprocessableEntityError(err) {
		t.Errorf("SearchSource() error = %v, want unprocessable", err)
	}
	if _, err := service.SearchSource(context.Background(), "Widgets", ""); !errors.Is(err, ErrEntitySetNotFound) {
		t.Errorf("SearchSource() error = %v, want ErrEntitySetNotFound", err)
	}
}

func TestWithTransformers(t *testing.T) {
	adult := TransformerFunc(func(field, operator string, args []Value, ctx QueryContext, parent *CallNode) (Transformed, error) {
		if field != "" || operator != "adult" {
			return NotHandled(), nil
		}
		return Handled(NewPredicate(OpGe, "age", 18)), nil
	})
	service, _ := setupTestService(t, WithTransformers(adult))

	q, err := service.ApplyFilter(context.Background(), nil, "Customers", "adult(),vip.eq(true)")
	if err != nil {
		t.Fatalf("ApplyFilter() error = %v", err)
	}
	if got, want := customerIDs(t, q), []uint{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyFilter() = %v, want %v", got, want)
	}

	// Built-in operators still work behind the custom transformer.
	if _, err := service.ApplyFilter(context.Background(), nil, "Customers", "age.gt(1)"); err != nil {
		t.Errorf("ApplyFilter() error = %v", err)
	}
}

func TestWithDateParser(t *testing.T) {
	called := false
	parse := func(s string) (time.Time, error) {
		called = true
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	service, _ := setupTestService(t, WithDateParser(parse))

	_, err := service.SearchSource(context.Background(), "Orders", "id.gt(date('yesterday'))")
	if err != nil {
		t.Fatalf("SearchSource() error = %v", err)
	}
	if !called {
		t.Error("custom date parser was not used")
	}
}

func TestWithMaxDepth(t *testing.T) {
	service, _ := setupTestService(t, WithMaxDepth(2))

	if _, err := service.ApplyFilter(context.Background(), nil, "Customers", "not(or(and(age.gt(1))))"); !IsSyntaxError(err) {
		t.Errorf("ApplyFilter() error = %v, want syntax error", err)
	}
}

func TestParseCache(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	service, _ := setupTestService(t, WithLogger(logger))

	for i := 0; i < 2; i++ {
		if _, err := service.ApplyFilter(context.Background(), nil, "Customers", "age.gt(1)"); err != nil {
			t.Fatalf("ApplyFilter() error = %v", err)
		}
	}
	if !strings.Contains(buf.String(), "Parse cache hit") {
		t.Errorf("expected a cache hit in logs:\n%s", buf.String())
	}

	buf.Reset()
	uncached, _ := setupTestService(t, WithLogger(logger), WithParseCacheSize(-1))
	for i := 0; i < 2; i++ {
		if _, err := uncached.ApplyFilter(context.Background(), nil, "Customers", "age.gt(1)"); err != nil {
			t.Fatalf("ApplyFilter() error = %v", err)
		}
	}
	if strings.Contains(buf.String(), "Parse cache hit") {
		t.Errorf("expected no cache hit with the cache disabled:\n%s", buf.String())
	}
}

func TestRejectedFilterIsLogged(t *testing.T) {
	var buf bytes.Buffer
	service, _ := setupTestService(t, WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	if _, err := service.ApplyFilter(context.Background(), nil, "Customers", "height.gt(1)"); err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(buf.String(), "Rejected filter") {
		t.Errorf("expected rejection in logs:\n%s", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	service, _ := setupTestService(t)
	service.SetLogger(nil)
	if service.logger != slog.Default() {
		t.Error("SetLogger(nil) should fall back to slog.Default()")
	}
}

func TestObservabilityWithProviders(t *testing.T) {
	service, _ := setupTestService(t, WithObservability(ObservabilityConfig{
		TracerProvider:          tracenoop.NewTracerProvider(),
		MeterProvider:           noop.NewMeterProvider(),
		ServiceName:             "ameba-test",
		EnableDetailedDBTracing: true,
		EnableFilterTracing:     true,
	}))

	if !service.obs.IsEnabled() {
		t.Fatal("observability should be enabled")
	}
	q, err := service.ApplyFilter(context.Background(), nil, "Customers", "age.ge(18)")
	if err != nil {
		t.Fatalf("ApplyFilter() error = %v", err)
	}
	if got, want := customerIDs(t, q), []uint{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyFilter() = %v, want %v", got, want)
	}
	if _, err := service.ApplyFilter(context.Background(), nil, "Customers", "age.gt("); err == nil {
		t.Error("expected a syntax error")
	}
}

func TestErrorKind(t *testing.T) {
	service, _ := setupTestService(t)
	_, syntaxErr := service.ApplyFilter(context.Background(), nil, "Customers", "age.gt(")
	_, unprocessableErr := service.ApplyFilter(context.Background(), nil, "Customers", "height.gt(1)")

	tests := map[error]string{
		syntaxErr:          "syntax",
		unprocessableErr:   "unprocessable",
		errors.New("boom"): "internal",
	}
	for err, want := range tests {
		if got := errorKind(err); got != want {
			t.Errorf("errorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
