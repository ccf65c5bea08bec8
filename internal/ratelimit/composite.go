package ratelimit

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultRequestWeights maps operation names to their cost against the
// per-IP request budget, following the exchange's published weights.
var DefaultRequestWeights = map[string]float64{
	"klines":       2,
	"ticker":       2,
	"exchangeInfo": 10,
	"account":      10,
	"order":        1,
	"openOrders":   5,
}

// DefaultOrderWeights maps operation names to their cost against the
// per-account order budget. Read-only operations carry no extra weight here.
var DefaultOrderWeights = map[string]float64{
	"order": 1,
}

// CompositeLimiter partitions a shared operation budget across two
// independent dimensions: the per-IP request-weight quota and the per-account
// order quota. Every call acquires tokens from both buckets concurrently; the
// effective wait is the slower of the two, not their sum.
type CompositeLimiter struct {
	requests       *Limiter
	orders         *Limiter
	requestWeights map[string]float64
	orderWeights   map[string]float64
	logger         zerolog.Logger
}

// NewCompositeLimiter combines a request-weight bucket and an order bucket.
// Nil weight tables fall back to the defaults.
func NewCompositeLimiter(requests, orders *Limiter, requestWeights, orderWeights map[string]float64) *CompositeLimiter {
	if requestWeights == nil {
		requestWeights = DefaultRequestWeights
	}
	if orderWeights == nil {
		orderWeights = DefaultOrderWeights
	}
	return &CompositeLimiter{
		requests:       requests,
		orders:         orders,
		requestWeights: requestWeights,
		orderWeights:   orderWeights,
		logger:         log.With().Str("component", "composite_limiter").Logger(),
	}
}

// Cost returns the effective cost of an operation: the larger of its two
// per-dimension weights, defaulting to 1 for unknown operations.
func (c *CompositeLimiter) Cost(operation string) float64 {
	cost := weightFor(c.requestWeights, operation)
	if orderCost := weightFor(c.orderWeights, operation); orderCost > cost {
		cost = orderCost
	}
	return cost
}

func weightFor(weights map[string]float64, operation string) float64 {
	if w, ok := weights[operation]; ok {
		return w
	}
	return 1
}

// Acquire takes the operation's cost from both dimensions, waiting on each
// concurrently. All must succeed; a failure on one dimension cancels the
// other's wait.
func (c *CompositeLimiter) Acquire(ctx context.Context, operation string) error {
	cost := c.Cost(operation)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.requests.WaitForToken(ctx, cost)
	})
	g.Go(func() error {
		return c.orders.WaitForToken(ctx, cost)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.Debug().Str("operation", operation).Float64("cost", cost).Msg("tokens acquired")
	return nil
}

// Execute acquires both quotas for the operation, then invokes fn
func (c *CompositeLimiter) Execute(ctx context.Context, operation string, fn func() error) error {
	if err := c.Acquire(ctx, operation); err != nil {
		return err
	}
	return fn()
}
