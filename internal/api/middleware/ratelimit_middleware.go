package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"norelock.dev/mediagate/backend/internal/db/redis"
	"norelock.dev/mediagate/backend/internal/utils"
)

// RateLimiter decides whether a client may make another request.
type RateLimiter interface {
	Allow(ctx context.Context, rateLimit redis.RateLimit, identifier string) (*redis.RateLimitResult, error)
}

// RateLimitMiddleware limits requests per client IP.
type RateLimitMiddleware struct {
	limiter   RateLimiter
	limit     redis.RateLimit
	onLimited func()
	logger    *utils.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware. onLimited may be nil.
func NewRateLimitMiddleware(limiter RateLimiter, limit redis.RateLimit, onLimited func(), logger *utils.Logger) *RateLimitMiddleware {
	if onLimited == nil {
		onLimited = func() {}
	}
	return &RateLimitMiddleware{
		limiter:   limiter,
		limit:     limit,
		onLimited: onLimited,
		logger:    logger.Named("rate_limit"),
	}
}

// Limit rejects clients over their limit with 429. When the limiter itself fails the
// request is let through.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := utils.GetRequestIP(r)

		result, err := m.limiter.Allow(r.Context(), m.limit, ip)
		if err != nil {
			m.logger.Warn("Rate limiter unavailable, allowing request", "ip", ip, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			m.onLimited()
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			m.logger.Debug("Rate limited", "ip", ip, "path", r.URL.Path)
			utils.RespondWithAppError(w, utils.RateLimitError("Too many requests", utils.ErrRateLimited))
			return
		}

		next.ServeHTTP(w, r)
	})
}
