package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// MetricsRecorder receives per-request measurements.
type MetricsRecorder interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	IncHTTPRequestsInProgress(method string)
	DecHTTPRequestsInProgress(method string)
}

// MetricsMiddleware records request counts and latencies by route pattern.
type MetricsMiddleware struct {
	recorder MetricsRecorder
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(recorder MetricsRecorder) *MetricsMiddleware {
	return &MetricsMiddleware{recorder: recorder}
}

// Metrics is a middleware that records HTTP metrics. Routes are labelled by their chi
// pattern so path parameters do not explode label cardinality.
func (m *MetricsMiddleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapResponseWriter(w)

		m.recorder.IncHTTPRequestsInProgress(r.Method)
		defer func() {
			m.recorder.DecHTTPRequestsInProgress(r.Method)
			m.recorder.ObserveHTTPRequest(r.Method, routePattern(r), rw.Status(), time.Since(start))
		}()

		next.ServeHTTP(rw, r)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
