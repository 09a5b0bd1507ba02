package ameba

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/icode/ameba/internal/i18n"
	"github.com/icode/ameba/internal/metadata"
	"github.com/icode/ameba/internal/observability"
	"github.com/icode/ameba/internal/response"
	servertiming "github.com/mitchellh/go-server-timing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// HeaderRequestID carries the request id. It is generated when absent
	// and always echoed on the response.
	HeaderRequestID = "X-Request-ID"

	queryFilter = "filter"
	queryLimit  = "limit"
)

type handlerCache struct {
	once    sync.Once
	handler http.Handler
}

// ServeHTTP implements http.Handler. It serves GET /{EntitySet} with the
// optional query parameters filter and limit.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.once.Do(func() {
		var h http.Handler = http.HandlerFunc(s.serveCollection)
		if s.obs.ServerTimingEnabled() {
			h = servertiming.Middleware(h, nil)
		}
		s.handler.handler = h
	})
	s.handler.handler.ServeHTTP(w, r)
}

func (s *Service) serveCollection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(HeaderRequestID, requestID)

	messages := i18n.MatchAcceptLanguage(r.Header.Get("Accept-Language"), s.messages)

	tracer := s.obs.Tracer()
	ctx, span := tracer.StartRequest(r.Context(), r, requestID)
	defer span.End()
	ctx = observability.WithDBTimeAccumulator(ctx)

	entitySet := strings.Trim(r.URL.Path, "/")
	logger := observability.LoggerWithTrace(ctx, s.logger).With(
		observability.LogFieldRequestID, requestID,
		observability.LogFieldEntitySet, entitySet)

	fail := func(status int, message string) {
		tracer.SetHTTPStatus(ctx, status)
		s.obs.Metrics().RecordRequest(ctx, entitySet, status, time.Since(start))
		observability.RecordDBTiming(ctx)
		body := &response.Error{
			Code:      string(errorCode(status)),
			Message:   message,
			RequestID: requestID,
		}
		if err := response.WriteErrorBody(w, status, body); err != nil {
			logger.Error("Error writing error response", observability.LogFieldError, err)
		}
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		fail(http.StatusMethodNotAllowed, fmt.Sprintf("method %s is not allowed", r.Method))
		return
	}

	meta, err := s.entity(entitySet)
	if err != nil {
		fail(http.StatusNotFound, fmt.Sprintf("entity set '%s' is not registered", entitySet))
		return
	}

	limit, err := s.parseLimit(r.URL.Query().Get(queryLimit))
	if err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}

	filterText := r.URL.Query().Get(queryFilter)
	q, err := s.ApplyFilter(ctx, nil, entitySet, filterText)
	if err != nil {
		status := MapErrorToHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Failed to apply filter", observability.LogFieldError, err)
		} else {
			logger.Warn("Rejected query", observability.LogFieldFilter, filterText, observability.LogFieldError, err)
		}
		fail(status, localize(err, messages))
		return
	}

	rows, err := s.find(ctx, q, meta, limit)
	if err != nil {
		logger.Error("Failed to query entities", observability.LogFieldError, err)
		fail(http.StatusInternalServerError, "failed to query entities")
		return
	}

	observability.RecordDBTiming(ctx)
	tracer.SetHTTPStatus(ctx, http.StatusOK)
	s.obs.Metrics().RecordResultCount(ctx, entitySet, int64(len(rows)))
	s.obs.Metrics().RecordRequest(ctx, entitySet, http.StatusOK, time.Since(start))
	span.SetAttributes(observability.ResultCountAttr(int64(len(rows))))

	if err := response.WriteCollection(w, rows); err != nil {
		logger.Error("Error writing collection response", observability.LogFieldError, err)
		return
	}
	logger.Debug("Served collection",
		observability.LogFieldResultCount, len(rows),
		observability.LogFieldDuration, time.Since(start).Milliseconds())
}

func (s *Service) parseLimit(raw string) (int, error) {
	if raw == "" {
		return s.defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q: must be a non-negative integer", raw)
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return limit, nil
}

// find loads at most limit rows of q ordered by primary key.
func (s *Service) find(ctx context.Context, q *gorm.DB, meta *metadata.EntityMetadata, limit int) ([]*response.OrderedMap, error) {
	for _, col := range meta.KeyColumns() {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: col}})
	}
	results := reflect.New(reflect.SliceOf(reflect.PointerTo(meta.EntityType)))
	if err := q.WithContext(ctx).Limit(limit).Find(results.Interface()).Error; err != nil {
		return nil, err
	}

	slice := results.Elem()
	rows := make([]*response.OrderedMap, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		rows = append(rows, toRow(slice.Index(i).Elem(), meta))
	}
	return rows, nil
}

// toRow keeps the visible structural properties of an entity, keyed by
// their JSON names in declaration order.
func toRow(v reflect.Value, meta *metadata.EntityMetadata) *response.OrderedMap {
	row := response.NewOrderedMap()
	for _, prop := range meta.Properties {
		if prop.Hidden || prop.IsNavigationProp {
			continue
		}
		field := v.FieldByName(prop.Name)
		if !field.IsValid() {
			continue
		}
		row.Set(prop.JsonName, field.Interface())
	}
	return row
}

// ListenAndServe starts the list endpoint on addr.
func (s *Service) ListenAndServe(addr string) error {
	s.logger.Info("Starting ameba service", "addr", addr, "entity_sets", s.EntitySets())
	return http.ListenAndServe(addr, s)
}
