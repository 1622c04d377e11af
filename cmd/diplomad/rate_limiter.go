// rate_limiter.go - Per-issuer rate limiting for mutating requests
package main

import (
	"sync"

	"golang.org/x/time/rate"
)

// IssuerRateLimiter keeps one token bucket per issuer address.
type IssuerRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewIssuerRateLimiter creates a limiter allowing rps requests per second
// with the given burst per issuer.
func NewIssuerRateLimiter(rps float64, burst int) *IssuerRateLimiter {
	return &IssuerRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a request from the issuer may proceed, consuming a
// token if so.
func (l *IssuerRateLimiter) Allow(issuer string) bool {
	l.mu.Lock()
	limiter, exists := l.limiters[issuer]
	if !exists {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[issuer] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// Reset drops the bucket for an issuer, restoring its full burst.
func (l *IssuerRateLimiter) Reset(issuer string) {
	l.mu.Lock()
	delete(l.limiters, issuer)
	l.mu.Unlock()
}
