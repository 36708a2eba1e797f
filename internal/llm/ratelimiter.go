package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider wraps a Provider with a token bucket rate limiter.
type RateLimitedProvider struct {
	provider Provider
	bucket   *bucket
}

// NewRateLimitedProvider wraps the given provider with a rate limiter
// that allows at most rpm requests per minute.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	return &RateLimitedProvider{
		provider: provider,
		bucket:   newBucket(rpm),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.bucket.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

type bucket struct {
	mu       sync.Mutex
	rpm      int
	tokens   int
	lastFill time.Time
}

func newBucket(rpm int) *bucket {
	return &bucket{rpm: rpm, tokens: rpm, lastFill: time.Now()}
}

func (b *bucket) wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		refill := int(now.Sub(b.lastFill).Seconds() * float64(b.rpm) / 60.0)
		if refill > 0 {
			b.tokens = min(b.tokens+refill, b.rpm)
			b.lastFill = now
		}

		if b.tokens > 0 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
