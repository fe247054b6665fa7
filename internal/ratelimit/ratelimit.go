// Package ratelimit throttles outbound RPC calls.
//
// Limiters obtained through ForEndpoint are shared, so the oracle reader and
// the on-chain quoters bound to the same node draw from a single budget.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket. A nil *Limiter never blocks.
type Limiter struct {
	limiter *rate.Limiter
}

// New returns a limiter refilling at perSecond with room for burst calls.
// A non-positive rate disables limiting.
func New(perSecond float64, burst int) *Limiter {
	if perSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))}
}

var (
	mu        sync.Mutex
	endpoints = map[string]*Limiter{}
)

// ForEndpoint returns the limiter for endpoint, creating it on first use.
// Later calls for the same endpoint ignore perSecond and burst.
func ForEndpoint(endpoint string, perSecond float64, burst int) *Limiter {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := endpoints[endpoint]; ok {
		return l
	}
	l := New(perSecond, burst)
	endpoints[endpoint] = l
	return l
}

// Wait blocks until a call may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed now without waiting.
func (l *Limiter) Allow() bool {
	return l == nil || l.limiter.Allow()
}
