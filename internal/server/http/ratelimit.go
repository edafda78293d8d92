package httpserver

import (
	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket shared by every API request.
// It is safe for concurrent use because rate.Limiter is.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter admitting requestsPerSecond on average
// with bursts of up to burst requests. A burst below 1 is raised to 1.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
