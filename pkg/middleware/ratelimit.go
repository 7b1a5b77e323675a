package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/crewdesk/crewdesk/pkg/contextkeys"
	"github.com/crewdesk/crewdesk/pkg/httputil"
	"github.com/crewdesk/crewdesk/pkg/observability"
)

// RateLimiter is a Redis-backed fixed-window rate limiter keyed per user.
// Limits are shared across instances. On Redis errors the limiter fails
// open so a degraded Redis never takes the API down with it.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *observability.Logger
}

// NewRateLimiter creates a rate limiter allowing limit requests per window.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, logger *observability.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		prefix: "crewdesk:ratelimit",
		logger: logger,
	}
}

// Allow reports whether the request identified by key is within its window
// quota, along with the count consumed so far.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, fmt.Errorf("failed to check rate limit: %w", err)
	}

	count := incr.Val()
	return count <= int64(rl.limit), count, nil
}

// Reset clears the window for a key.
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// Handler wraps an HTTP handler with per-user rate limiting. It must run
// after ActorMiddleware so the user ID is available.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		key := "anon:" + clientIP(r)
		if userID := contextkeys.GetUserID(ctx); userID != 0 {
			key = fmt.Sprintf("user:%d", userID)
		}

		allowed, count, err := rl.Allow(ctx, key)
		if err != nil {
			// Fail open.
			rl.logger.WithFields(map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			}).Warn("rate limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rl.window.Seconds()))
			httputil.WriteTooManyRequests(w, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
