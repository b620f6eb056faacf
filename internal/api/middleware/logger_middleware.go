// Package middleware contains HTTP middleware for the API.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"norelock.dev/mediagate/backend/internal/utils"
)

// LoggerMiddleware handles request logging for the API.
type LoggerMiddleware struct {
	logger *utils.Logger
}

// NewLoggerMiddleware creates a new logger middleware.
func NewLoggerMiddleware(logger *utils.Logger) *LoggerMiddleware {
	return &LoggerMiddleware{
		logger: logger.Named("http"),
	}
}

// Logger is a middleware that logs HTTP requests. Aborted streams are logged too.
func (m *LoggerMiddleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapResponseWriter(w)

		defer func() {
			m.logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.Status(),
				"bytes", rw.BytesWritten(),
				"duration", time.Since(start).String(),
				"ip", utils.GetRequestIP(r),
				"userAgent", r.UserAgent(),
				"requestId", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(rw, r)
	})
}

// responseWriter is a wrapper around http.ResponseWriter that captures the status code
// and the number of body bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	bytes       int64
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code and calls the underlying ResponseWriter's WriteHeader.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write calls the underlying ResponseWriter's Write method.
func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Flush forwards to the underlying writer so streamed chunks leave immediately.
func (rw *responseWriter) Flush() {
	rw.wroteHeader = true
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Status returns the status code sent, or 200 if none was set explicitly.
func (rw *responseWriter) Status() int {
	return rw.statusCode
}

// BytesWritten returns the number of body bytes written.
func (rw *responseWriter) BytesWritten() int64 {
	return rw.bytes
}

// HeaderWritten reports whether the response has started.
func (rw *responseWriter) HeaderWritten() bool {
	return rw.wroteHeader
}
