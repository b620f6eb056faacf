package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"norelock.dev/mediagate/backend/internal/utils"
)

const (
	// RateLimitKeyPrefix is the prefix for rate limit keys
	RateLimitKeyPrefix = "ratelimit"
)

// RateLimiter implements a sliding window rate limit on sorted sets.
type RateLimiter struct {
	client *Client
	logger *utils.Logger
	now    func() time.Time
	seq    atomic.Uint64
}

// RateLimit defines a rate limit constraint
type RateLimit struct {
	// Key is the identifier for this rate limit
	Key string

	// MaxRequests is the maximum number of requests allowed in the time window
	MaxRequests int

	// Window is the time window for rate limiting
	Window time.Duration
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	// Allowed indicates whether the request is allowed
	Allowed bool

	// Remaining is the number of requests remaining in the current window
	Remaining int

	// RetryAfter is the time after which the client should retry (if rate limited)
	RetryAfter time.Duration

	// Limit is the maximum number of requests allowed in the window
	Limit int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{
		client: client,
		logger: client.Logger(),
		now:    time.Now,
	}
}

// Allow records a request for identifier and reports whether it fits the limit.
// Denied requests are not counted against the window.
func (rl *RateLimiter) Allow(ctx context.Context, rateLimit RateLimit, identifier string) (*RateLimitResult, error) {
	key := formatRateLimitKey(rateLimit.Key, identifier)

	now := rl.now()
	nowMs := now.UnixMilli()
	windowStartMs := now.Add(-rateLimit.Window).UnixMilli()
	// Unique per request so concurrent hits in the same millisecond all count
	member := strconv.FormatInt(nowMs, 10) + "-" + strconv.FormatUint(rl.seq.Add(1), 10)

	pipe := rl.client.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStartMs, 10))
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(nowMs), Member: member})
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.PExpire(ctx, key, rateLimit.Window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Error("Failed to execute rate limit pipeline", err, "key", key)
		return nil, err
	}

	count := int(countCmd.Val())
	result := &RateLimitResult{
		Allowed:   count <= rateLimit.MaxRequests,
		Remaining: max(rateLimit.MaxRequests-count, 0),
		Limit:     rateLimit.MaxRequests,
	}

	if result.Allowed {
		return result, nil
	}

	if err := rl.client.client.ZRem(ctx, key, member).Err(); err != nil {
		rl.logger.Error("Failed to remove denied request from rate limit", err, "key", key)
	}

	result.RetryAfter = rateLimit.Window
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		oldestTime := time.UnixMilli(int64(oldest[0].Score))
		result.RetryAfter = max(oldestTime.Add(rateLimit.Window).Sub(now), time.Millisecond)
	}

	return result, nil
}

// Reset resets a rate limit for an identifier
func (rl *RateLimiter) Reset(ctx context.Context, rateLimit RateLimit, identifier string) error {
	key := formatRateLimitKey(rateLimit.Key, identifier)

	if err := rl.client.client.Del(ctx, key).Err(); err != nil {
		rl.logger.Error("Failed to reset rate limit", err, "key", key)
		return err
	}

	rl.logger.Debug("Reset rate limit", "key", key)
	return nil
}

// formatRateLimitKey formats a key for rate limiting
func formatRateLimitKey(key, identifier string) string {
	return FormatKey(RateLimitKeyPrefix, fmt.Sprintf("%s:%s", key, identifier))
}
