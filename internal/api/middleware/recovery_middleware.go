// Package middleware contains HTTP middleware for the API.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"norelock.dev/mediagate/backend/internal/utils"
)

// RecoveryMiddleware handles panic recovery for the API.
type RecoveryMiddleware struct {
	logger *utils.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(logger *utils.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: logger.Named("recovery"),
	}
}

// Recovery is a middleware that recovers from panics.
// http.ErrAbortHandler is re-raised so net/http can cut the connection of an interrupted stream.
func (m *RecoveryMiddleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := wrapResponseWriter(w)

		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			m.logger.Error("Panic recovered", fmt.Errorf("panic: %v", rvr),
				"stack", string(debug.Stack()),
				"method", r.Method,
				"path", r.URL.Path,
				"ip", utils.GetRequestIP(r),
			)

			// A started response cannot be replaced
			if rw.HeaderWritten() {
				return
			}
			utils.RespondWithError(rw, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(rw, r)
	})
}
