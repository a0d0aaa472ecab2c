package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces scans, fetches or emitted records. The zero rate means
// unlimited.
type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or negative perSecond for no rate limiting.
func New(perSecond float64) *Limiter {
	return NewWithBurst(perSecond, 1)
}

// NewWithBurst allows burst events at once before pacing applies.
func NewWithBurst(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if perSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, burst)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Every allows one event per interval; the first is immediate.
// A non-positive interval means unlimited.
func Every(interval time.Duration) *Limiter {
	if interval <= 0 {
		return New(0)
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow is non-blocking; servers use it to reject instead of queue.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}
