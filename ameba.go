// Package ameba filters GORM queries with the Ameba query expression DSL.
//
// A filter such as
//
//	name.startsWith('ab'),or(age.gt(18),vip.eq(true))
//
// is parsed, transformed into expressions, validated against the registered
// entity and applied to a *gorm.DB. The same expressions can be rendered as
// an Elasticsearch style search body, and Service serves a read-only list
// endpoint GET /{EntitySet}?filter=...&limit=... on top of it.
package ameba

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/icode/ameba/internal/dsl"
	"github.com/icode/ameba/internal/filter"
	"github.com/icode/ameba/internal/i18n"
	"github.com/icode/ameba/internal/metadata"
	"github.com/icode/ameba/internal/observability"
	"github.com/icode/ameba/internal/params"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Expression is a node of a transformed filter.
type Expression = filter.Expression

// QueryContext is passed to transformers.
type QueryContext = filter.QueryContext

// Transformer handles DSL operators. Transformers added with
// WithTransformers are tried before the built-in ones.
type Transformer = filter.Transformer

// TransformerFunc adapts a function to Transformer.
type TransformerFunc = dsl.TransformerFunc[filter.Expression, filter.QueryContext]

// Value is an evaluated argument or transformer result.
type Value = dsl.Value[filter.Expression]

// Transformed is the outcome of offering a call to a transformer.
type Transformed = dsl.Transformed[filter.Expression]

// CallNode is a parsed operator call.
type CallNode = dsl.CallNode

// Operator names a comparison of NewPredicate.
type Operator = filter.Operator

const (
	OpEq         = filter.OpEq
	OpNe         = filter.OpNe
	OpGt         = filter.OpGt
	OpGe         = filter.OpGe
	OpLt         = filter.OpLt
	OpLe         = filter.OpLe
	OpIsNull     = filter.OpIsNull
	OpNotNull    = filter.OpNotNull
	OpStartsWith = filter.OpStartsWith
	OpContains   = filter.OpContains
)

// Handled wraps the expression a transformer produced.
func Handled(e Expression) Transformed {
	return dsl.Succ(dsl.ExprValue[filter.Expression](e))
}

// NotHandled passes the call on to the next transformer.
func NotHandled() Transformed {
	return dsl.Fail[filter.Expression]()
}

// NewPredicate compares field against values. field is a property path of
// the queried entity such as "age" or "orders.status".
func NewPredicate(op Operator, field string, values ...interface{}) Expression {
	return filter.DefaultFactory{}.Predicate(op, field, values...)
}

const (
	// DefaultLimit is the page size of the list endpoint without a limit parameter.
	DefaultLimit = 100
	// DefaultMaxLimit caps the limit parameter.
	DefaultMaxLimit = 1000
)

// Service compiles filters for registered entities.
type Service struct {
	db       *gorm.DB
	registry *metadata.Registry
	// entities holds explicitly registered entities keyed by entity set name
	entities   map[string]*metadata.EntityMetadata
	entitiesMu sync.RWMutex

	parser     *dsl.Parser
	invoker    *filter.Invoker
	dateParser params.DateParser
	messages   *i18n.Messages
	logger     *slog.Logger
	obs        *observability.Config

	defaultLimit int
	maxLimit     int

	handler handlerCache
}

// NewService creates a service backed by db. db is the default database of
// ApplyFilter and the database queried by the list endpoint.
func NewService(db *gorm.DB, opts ...Option) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("ameba: database handle is required")
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Service{
		db:           db,
		registry:     metadata.NewRegistry(db.NamingStrategy),
		entities:     make(map[string]*metadata.EntityMetadata),
		parser:       dsl.NewParser(cfg.maxDepth, cfg.parseCacheSize),
		invoker:      filter.NewInvoker(cfg.transformers...),
		dateParser:   cfg.dateParser,
		messages:     cfg.messages,
		logger:       cfg.logger,
		obs:          cfg.observability.build(),
		defaultLimit: cfg.defaultLimit,
		maxLimit:     cfg.maxLimit,
	}

	if err := observability.RegisterGORMCallbacks(db, s.obs); err != nil {
		return nil, fmt.Errorf("failed to register tracing callbacks: %w", err)
	}
	if s.obs.ServerTimingEnabled() {
		if err := observability.RegisterServerTimingCallbacks(db); err != nil {
			return nil, fmt.Errorf("failed to register server timing callbacks: %w", err)
		}
	}
	return s, nil
}

// SetLogger sets a custom logger for the service.
// If not called, slog.Default() is used.
func (s *Service) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
}

// RegisterEntity makes a GORM model queryable under its entity set name,
// the pluralized type name. Related models reached through navigation
// properties can be filtered on but are not served unless registered too.
func (s *Service) RegisterEntity(entity interface{}) error {
	meta, err := s.registry.Register(entity)
	if err != nil {
		return fmt.Errorf("failed to register entity: %w", err)
	}

	s.entitiesMu.Lock()
	defer s.entitiesMu.Unlock()
	if _, exists := s.entities[meta.EntitySetName]; exists {
		return fmt.Errorf("entity set %s is already registered", meta.EntitySetName)
	}
	s.entities[meta.EntitySetName] = meta
	s.logger.Debug("Registered entity", "entity", meta.EntityName, observability.LogFieldEntitySet, meta.EntitySetName)
	return nil
}

// EntitySets returns the registered entity set names, sorted.
func (s *Service) EntitySets() []string {
	s.entitiesMu.RLock()
	defer s.entitiesMu.RUnlock()
	names := make([]string, 0, len(s.entities))
	for name := range s.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) entity(entitySet string) (*metadata.EntityMetadata, error) {
	s.entitiesMu.RLock()
	defer s.entitiesMu.RUnlock()
	meta, ok := s.entities[entitySet]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntitySetNotFound, entitySet)
	}
	return meta, nil
}

// ApplyFilter compiles filterText for entitySet and applies it to db, or to
// the service database when db is nil. The returned query is bound to ctx
// and to the entity model, ready for Find, Count or further conditions. An
// empty filter applies nothing.
func (s *Service) ApplyFilter(ctx context.Context, db *gorm.DB, entitySet, filterText string) (*gorm.DB, error) {
	start := time.Now()
	meta, err := s.entity(entitySet)
	if err != nil {
		return nil, err
	}

	tracer := s.obs.Tracer()
	ctx, span := tracer.StartFilter(ctx, entitySet, s.tracedFilter(filterText))
	defer span.End()
	timing := observability.StartServerTimingWithDesc(ctx, "filter", "Filter")
	defer timing.Stop()

	exprs, err := s.compile(ctx, meta, filterText)
	if err != nil {
		s.recordFailure(ctx, span, entitySet, observability.OpApplyFilter, err)
		return nil, err
	}

	if db == nil {
		db = s.db
	}
	logger := observability.LoggerWithTrace(ctx, s.logger)
	q := db.WithContext(ctx).Model(reflect.New(meta.EntityType).Interface())
	q, err = filter.Apply(filter.SetLoggerInDB(q, logger), meta, exprs)
	if err != nil {
		s.recordFailure(ctx, span, entitySet, observability.OpApplyFilter, err)
		return nil, err
	}

	span.SetAttributes(observability.ExpressionCountAttr(len(exprs)))
	s.obs.Metrics().RecordFilter(ctx, entitySet, observability.OpApplyFilter, time.Since(start))
	return q, nil
}

// SearchSource compiles filterText for entitySet and renders it as a search
// body of the form {"query":{"bool":{"must":[...]}}}.
func (s *Service) SearchSource(ctx context.Context, entitySet, filterText string) (json.RawMessage, error) {
	start := time.Now()
	meta, err := s.entity(entitySet)
	if err != nil {
		return nil, err
	}

	ctx, span := s.obs.Tracer().StartSearch(ctx, entitySet)
	defer span.End()

	exprs, err := s.compile(ctx, meta, filterText)
	if err != nil {
		s.recordFailure(ctx, span, entitySet, observability.OpSearchSource, err)
		return nil, err
	}
	src, err := filter.SearchSource(exprs)
	if err != nil {
		s.recordFailure(ctx, span, entitySet, observability.OpSearchSource, err)
		return nil, err
	}
	body, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search source: %w", err)
	}

	s.obs.Metrics().RecordFilter(ctx, entitySet, observability.OpSearchSource, time.Since(start))
	return body, nil
}

// compile parses, transforms and validates filterText against meta.
func (s *Service) compile(ctx context.Context, meta *metadata.EntityMetadata, filterText string) ([]filter.Expression, error) {
	if strings.TrimSpace(filterText) == "" {
		return nil, nil
	}

	_, span := s.obs.Tracer().StartParse(ctx)
	calls, hit, err := s.parser.ParseCached(filterText)
	span.SetAttributes(observability.CacheHitAttr(hit))
	s.obs.Tracer().RecordError(span, err)
	span.End()
	if err != nil {
		return nil, err
	}
	if hit {
		s.logger.Debug("Parse cache hit", observability.LogFieldEntitySet, meta.EntitySetName)
	}

	qctx := filter.NewContext(s.registry, meta, filter.WithDateParser(s.dateParser))
	exprs, err := filter.Transform(s.invoker, calls, qctx)
	if err != nil {
		return nil, err
	}
	if err := filter.Validate(meta, exprs); err != nil {
		return nil, err
	}
	return exprs, nil
}

func (s *Service) tracedFilter(filterText string) string {
	if s.obs.FilterTracingEnabled() {
		return filterText
	}
	return ""
}

func (s *Service) recordFailure(ctx context.Context, span trace.Span, entitySet, operation string, err error) {
	s.obs.Tracer().RecordError(span, err)
	s.obs.Metrics().RecordError(ctx, entitySet, operation, errorKind(err))
	observability.LoggerWithTrace(ctx, s.logger).Debug("Rejected filter",
		observability.LogFieldEntitySet, entitySet,
		observability.LogFieldError, err)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrQuerySyntax):
		return observability.ErrorKindSyntax
	case errors.Is(err, ErrUnprocessableEntity):
		return observability.ErrorKindUnprocessable
	}
	return observability.ErrorKindInternal
}
