package ratelimit

import (
	"context"
	"sync"
	"time"
)

// IntervalLimiter enforces a minimum wall-clock gap between successive
// operations. Unlike the token bucket it allows no bursts.
type IntervalLimiter struct {
	mu      sync.Mutex
	minGap  time.Duration
	last    time.Time
	now     func() time.Time
	sleepFn func(context.Context, time.Duration) error
}

// NewIntervalLimiter creates a limiter that spaces operations at least minGap apart
func NewIntervalLimiter(minGap time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		minGap:  minGap,
		now:     time.Now,
		sleepFn: sleepCtx,
	}
}

// Wait blocks until minGap has elapsed since the previous operation, then
// marks the current instant as that operation's time.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	wait := l.minGap - now.Sub(l.last)
	if wait <= 0 {
		l.last = now
		l.mu.Unlock()
		return nil
	}
	// Reserve the slot before sleeping so concurrent callers queue up
	l.last = now.Add(wait)
	l.mu.Unlock()

	return l.sleepFn(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
