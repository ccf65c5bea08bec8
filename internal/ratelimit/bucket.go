package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// minRetryDelay is the floor on the wait-retry interval; it keeps a near-zero
// token deficit from turning into a busy poll.
const minRetryDelay = 100 * time.Millisecond

// CapacityError means a single consume asked for more tokens than the bucket
// can ever hold; waiting would never succeed.
type CapacityError struct {
	Cost     float64
	Capacity float64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("requested %v tokens exceeds bucket capacity %v", e.Cost, e.Capacity)
}

// Limiter is a token bucket: a capped credit balance that refills continuously
// at a fixed rate and is consumed per operation. Each bucket owns its token
// state exclusively; the mutex makes refill+consume atomic for concurrent
// callers.
type Limiter struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	logger     zerolog.Logger
}

// NewLimiter creates a full bucket with the given capacity and refill rate in
// tokens per second.
func NewLimiter(capacity, refillRate float64) *Limiter {
	return &Limiter{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
		now:        time.Now,
		logger:     log.With().Str("component", "rate_limiter").Logger(),
	}
}

// refillLocked credits tokens for the elapsed time. Caller holds mu.
func (l *Limiter) refillLocked() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens = math.Min(l.capacity, l.tokens+elapsed*l.refillRate)
	l.lastRefill = now
}

// TryConsume takes cost tokens if available and reports whether it did.
// Failure leaves the token count untouched.
func (l *Limiter) TryConsume(cost float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	if l.tokens < cost {
		return false
	}
	l.tokens -= cost
	return true
}

// Available returns the current token balance after refill
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	return l.tokens
}

// WaitForToken blocks until cost tokens can be consumed or ctx ends. The
// retry delay is the time the deficit needs to refill, floored at 100ms.
// A cost above the bucket capacity fails immediately with a CapacityError.
func (l *Limiter) WaitForToken(ctx context.Context, cost float64) error {
	if cost > l.capacity {
		return &CapacityError{Cost: cost, Capacity: l.capacity}
	}

	for {
		l.mu.Lock()
		l.refillLocked()
		if l.tokens >= cost {
			l.tokens -= cost
			l.mu.Unlock()
			return nil
		}
		deficit := cost - l.tokens
		l.mu.Unlock()

		delay := time.Duration(math.Ceil(deficit/l.refillRate*1000)) * time.Millisecond
		if delay < minRetryDelay {
			delay = minRetryDelay
		}

		l.logger.Debug().
			Float64("deficit", deficit).
			Dur("retry_in", delay).
			Msg("insufficient tokens, waiting")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Execute acquires cost tokens and then invokes fn. The acquisition and the
// invocation are not atomic with respect to other callers.
func (l *Limiter) Execute(ctx context.Context, cost float64, fn func() error) error {
	if err := l.WaitForToken(ctx, cost); err != nil {
		return fmt.Errorf("acquiring rate-limit tokens: %w", err)
	}
	return fn()
}
