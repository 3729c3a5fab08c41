// internal/utils/rate_limiter.go
package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps the golang.org/x/time/rate limiter
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with the given rate (requests per second)
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// NewIntervalLimiter creates a limiter that allows at most maxRequests per
// period, with the full quota available as burst. Used to throttle form
// submissions against admin portals.
func NewIntervalLimiter(maxRequests int, period time.Duration) *RateLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	if period <= 0 {
		period = time.Second
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(period/time.Duration(maxRequests)), maxRequests),
	}
}

// WaitTimeout blocks until the limiter allows the next request or the
// timeout elapses.
func (rl *RateLimiter) WaitTimeout(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return rl.limiter.Wait(ctx)
}

// Wait blocks until the rate limiter allows the next request
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Reserve returns a Reservation that indicates how long the caller must wait before the next request
func (rl *RateLimiter) Reserve() *rate.Reservation {
	return rl.limiter.Reserve()
}

// SetLimit changes the rate limit
func (rl *RateLimiter) SetLimit(newLimit rate.Limit) {
	rl.limiter.SetLimit(newLimit)
}

// SetBurst changes the burst size
func (rl *RateLimiter) SetBurst(newBurst int) {
	rl.limiter.SetBurst(newBurst)
}
