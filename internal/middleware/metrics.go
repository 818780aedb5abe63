package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/payram/simple-chat-api/internal/metrics"
)

// Metrics records request counts and latency labelled by route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		now := time.Now()

		next.ServeHTTP(rec, r)

		path := routePattern(r)
		code := strconv.Itoa(rec.status)
		metrics.TotalRequests.WithLabelValues(path, code, r.Method).Inc()
		metrics.HttpDuration.WithLabelValues(path, code, r.Method).Observe(time.Since(now).Seconds())
	})
}

// routePattern keeps label cardinality bounded: unmatched paths collapse to one value.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
