package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to another client with a token bucket.
type RateLimited struct {
	next    Client
	limiter *rate.Limiter
}

func NewRateLimited(next Client, requestsPerSecond float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (r *RateLimited) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limit: %w", err)
	}
	return r.next.Generate(ctx, prompt, opts)
}

func (r *RateLimited) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limit: %w", err)
	}
	return r.next.Summarize(ctx, text, maxLength)
}
