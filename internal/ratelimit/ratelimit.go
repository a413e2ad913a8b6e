// Package ratelimit wraps golang.org/x/time/rate for the outbound HTTP
// calls the bot makes, chiefly chart rendering.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter smooths a per-minute allowance into a token bucket.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing requestsPerMinute, with a burst of 10%
// of the allowance (at least one).
func New(requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
