// Package system provides system-level services for monitoring.
package system

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"norelock.dev/mediagate/backend/internal/utils"
)

const metricsNamespace = "mediagate"

// MetricsService provides application metrics collection functionality. Each instance owns its
// registry, so several can coexist in one process.
type MetricsService struct {
	logger   *utils.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	httpRequestsInProgress *prometheus.GaugeVec
	rateLimitedTotal       prometheus.Counter

	// Upstream resolution metrics
	fallbackAttemptsTotal   *prometheus.CounterVec
	fallbackAttemptDuration *prometheus.HistogramVec

	// Relay metrics
	relayStreamsTotal *prometheus.CounterVec
	relayBytesTotal   prometheus.Counter
}

// NewMetricsService creates a new metrics service.
func NewMetricsService(logger *utils.Logger) *MetricsService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &MetricsService{
		logger:   logger.Named("metrics_service"),
		registry: registry,
	}

	factory := promauto.With(registry)
	m.initHTTPMetrics(factory)
	m.initFallbackMetrics(factory)
	m.initRelayMetrics(factory)

	return m
}

// Handler returns an HTTP handler for exposing metrics.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// initHTTPMetrics initializes HTTP-related metrics.
func (m *MetricsService) initHTTPMetrics(factory promauto.Factory) {
	m.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.httpRequestsInProgress = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_in_progress",
			Help:      "Number of HTTP requests currently in progress",
		},
		[]string{"method"},
	)

	m.rateLimitedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)
}

// initFallbackMetrics initializes upstream resolution metrics.
func (m *MetricsService) initFallbackMetrics(factory promauto.Factory) {
	m.fallbackAttemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_attempts_total",
			Help:      "Total number of upstream source attempts",
		},
		[]string{"operation", "source", "outcome"},
	)

	m.fallbackAttemptDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_attempt_duration_seconds",
			Help:      "Duration of upstream source attempts in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "source"},
	)
}

// initRelayMetrics initializes stream relay metrics.
func (m *MetricsService) initRelayMetrics(factory promauto.Factory) {
	m.relayStreamsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "relay_streams_total",
			Help:      "Total number of relayed streams by outcome",
		},
		[]string{"outcome"},
	)

	m.relayBytesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "relay_bytes_total",
			Help:      "Total number of bytes relayed to clients",
		},
	)
}

// ObserveHTTPRequest records metrics for an HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncHTTPRequestsInProgress increments the in-progress HTTP requests gauge.
func (m *MetricsService) IncHTTPRequestsInProgress(method string) {
	m.httpRequestsInProgress.WithLabelValues(method).Inc()
}

// DecHTTPRequestsInProgress decrements the in-progress HTTP requests gauge.
func (m *MetricsService) DecHTTPRequestsInProgress(method string) {
	m.httpRequestsInProgress.WithLabelValues(method).Dec()
}

// IncRateLimited counts a request rejected by the rate limiter.
func (m *MetricsService) IncRateLimited() {
	m.rateLimitedTotal.Inc()
}

// ObserveAttempt records one upstream source attempt.
func (m *MetricsService) ObserveAttempt(operation, source string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.fallbackAttemptsTotal.WithLabelValues(operation, source, outcome).Inc()
	m.fallbackAttemptDuration.WithLabelValues(operation, source).Observe(elapsed.Seconds())
}

// ObserveStream records a finished relay stream.
func (m *MetricsService) ObserveStream(outcome string, bytes int64) {
	m.relayStreamsTotal.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		m.relayBytesTotal.Add(float64(bytes))
	}
}
