package system

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"norelock.dev/mediagate/backend/internal/utils"
)

func TestMetricsServicesDoNotCollide(t *testing.T) {
	first := NewMetricsService(utils.NewNopLogger())
	second := NewMetricsService(utils.NewNopLogger())

	first.ObserveAttempt("manga_search", "https://a", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(first.fallbackAttemptsTotal.WithLabelValues("manga_search", "https://a", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.fallbackAttemptsTotal.WithLabelValues("manga_search", "https://a", "success")))
}

func TestMetricsObservers(t *testing.T) {
	m := NewMetricsService(utils.NewNopLogger())

	m.ObserveAttempt("chapter_pages", "https://b", time.Millisecond, errors.New("boom"))
	m.ObserveStream("completed", 2048)
	m.ObserveStream("rejected", 0)
	m.ObserveHTTPRequest(http.MethodGet, "/manga/search", http.StatusBadGateway, 10*time.Millisecond)
	m.IncRateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbackAttemptsTotal.WithLabelValues("chapter_pages", "https://b", "failure")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.relayBytesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relayStreamsTotal.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/manga/search", "502")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitedTotal))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetricsService(utils.NewNopLogger())
	m.ObserveStream("completed", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "mediagate_relay_streams_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestHealthAggregatesComponents(t *testing.T) {
	s := NewHealthService(utils.NewNopLogger(), HealthServiceConfig{Version: "1.2.3", Environment: "test"},
		Checker{Name: "redis", Check: func(context.Context) error { return nil }},
		Checker{Name: "stream_extractor", Check: func(context.Context) error { return errors.New("yt-dlp not found") }, FailureStatus: StatusDegraded},
	)

	s.CheckHealth(context.Background())
	health := s.GetHealth()

	assert.Equal(t, StatusDegraded, health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	require.Len(t, health.Components, 2)
	assert.Equal(t, "redis", health.Components[0].Name)
	assert.Equal(t, StatusUp, health.Components[0].Status)
	assert.Equal(t, StatusDegraded, health.Components[1].Status)
	assert.Contains(t, health.Components[1].Description, "yt-dlp not found")
}

func TestHealthDownWins(t *testing.T) {
	s := NewHealthService(utils.NewNopLogger(), HealthServiceConfig{},
		Checker{Name: "a", Check: func(context.Context) error { return errors.New("x") }, FailureStatus: StatusDegraded},
		Checker{Name: "b", Check: func(context.Context) error { return errors.New("y") }},
	)

	s.CheckHealth(context.Background())
	assert.Equal(t, StatusDown, s.GetHealth().Status)
}

func TestHealthWithoutComponentsIsUp(t *testing.T) {
	s := NewHealthService(nil, HealthServiceConfig{})
	health := s.GetHealth()
	assert.Equal(t, StatusUp, health.Status)
	assert.Empty(t, health.Components)
	assert.Positive(t, health.GoRoutines)
}
