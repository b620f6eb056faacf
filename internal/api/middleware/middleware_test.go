package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"norelock.dev/mediagate/backend/internal/utils"
)

func TestRecoveryAnswers500(t *testing.T) {
	h := NewRecoveryMiddleware(utils.NewNopLogger()).Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestRecoveryLeavesStartedResponse(t *testing.T) {
	h := NewRecoveryMiddleware(utils.NewNopLogger()).Recovery(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestRecoveryReraisesAbort(t *testing.T) {
	h := NewRecoveryMiddleware(utils.NewNopLogger()).Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestCORSOrigins(t *testing.T) {
	m := NewCORSMiddleware(DefaultCORSConfig([]string{"https://app.example", "http://localhost:*"}), utils.NewNopLogger())

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.example", "https://app.example"},
		{"http://localhost:3000", "http://localhost:3000"},
		{"https://evil.example", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.allowedOrigin(tt.origin), tt.origin)
	}
}

func TestResponseWriterTracksStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusTeapot)
	_, _ = rw.Write([]byte("hello"))
	rw.Flush()

	assert.Equal(t, http.StatusAccepted, rw.Status())
	assert.Equal(t, int64(5), rw.BytesWritten())
	assert.True(t, rec.Flushed)
	assert.Same(t, rw, wrapResponseWriter(rw))
	assert.Equal(t, rec, rw.Unwrap())
}
