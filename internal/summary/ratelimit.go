package summary

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped summarizer. The Gemini API has
// per-key request quotas; a single shared limiter in front of the client
// keeps the background scheduler from burning through them.
type RateLimited struct {
	inner   Summarizer
	limiter *rate.Limiter
}

// WithRateLimit wraps inner with a token-bucket limiter allowing
// requestsPerSecond sustained calls with a burst of one.
func WithRateLimit(inner Summarizer, requestsPerSecond float64) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Summarize blocks until the limiter grants a slot, then delegates. A context
// cancelled while waiting surfaces as a transient failure so the job retry
// policy applies.
func (r *RateLimited) Summarize(ctx context.Context, text string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransientFailure, err)
	}
	return r.inner.Summarize(ctx, text)
}
