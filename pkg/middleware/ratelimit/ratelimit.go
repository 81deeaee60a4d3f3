// Package ratelimit throttles requests per client key.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nimburion/bookshelf/pkg/controller"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

// RateLimiter decides whether a request for key may proceed.
// Implementations must be safe for concurrent use.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// TokenBucketLimiter keeps one in-process token bucket per key.
//
// With requestsPerSecond=10 and burst=20 a client can make 20 requests
// immediately; after that it is held to 10 per second.
type TokenBucketLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func NewTokenBucketLimiter(requestsPerSecond int, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

func (l *TokenBucketLimiter) Allow(_ context.Context, key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *TokenBucketLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	return limiter.(*rate.Limiter)
}

// Config configures the RateLimit middleware.
type Config struct {
	// KeyFunc extracts the rate limiting key. Defaults to the client IP.
	KeyFunc func(router.Context) string
	// RetryAfterSeconds is sent in the Retry-After header of rejected requests.
	RetryAfterSeconds int
}

// RateLimit rejects requests over the limit with 429 and a Retry-After header.
func RateLimit(limiter RateLimiter, cfg Config) router.MiddlewareFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c router.Context) string { return ExtractIPFromRequest(c.Request()) }
	}
	retryAfter := cfg.RetryAfterSeconds
	if retryAfter <= 0 {
		retryAfter = 1
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if !limiter.Allow(c.Request().Context(), keyFunc(c)) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return controller.Error(c, controller.NewTooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}

// ExtractIPFromRequest returns the client IP, preferring the first
// X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
func ExtractIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
