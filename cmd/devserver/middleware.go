package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/icode/ameba"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logMiddleware logs one line per request.
func logMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"filter", r.URL.Query().Get("filter"),
			"status", rec.status,
			"request_id", rec.Header().Get(ameba.HeaderRequestID),
			"duration_ms", time.Since(start).Milliseconds())
	})
}
