package openweather

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Fetcher is the slice of the client this decorator wraps.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// RateLimited throttles an inner fetcher with a token bucket so bursts
// of refresh requests stay inside the provider's request allowance.
// Waiting respects the caller's context.
type RateLimited struct {
	inner   Fetcher
	limiter *rate.Limiter
}

// NewRateLimited wraps a fetcher with a sustained requests-per-second
// limit and a burst allowance.
func NewRateLimited(inner Fetcher, perSecond float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Fetch blocks until a token is available, then delegates.
func (r *RateLimited) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.Fetch(ctx, url)
}
