package embeddings

import (
	"context"
	"errors"
	"time"
)

// retryingEmbedder retries service failures with exponential backoff.
type retryingEmbedder struct {
	Embedder
	attempts int
	base     time.Duration
}

// WithRetry wraps e so that calls failing with ErrService are retried up to
// retries more times, doubling the delay from base after each attempt.
// Context cancellation stops retrying immediately. retries <= 0 returns e.
func WithRetry(e Embedder, retries int, base time.Duration) Embedder {
	if retries <= 0 {
		return e
	}
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return &retryingEmbedder{Embedder: e, attempts: retries + 1, base: base}
}

func (r *retryingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		var out [][]float32
		out, err = r.Embedder.Embed(ctx, texts)
		if err == nil || !errors.Is(err, ErrService) {
			return out, err
		}
		if attempt == r.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.base << attempt):
		}
	}
	return nil, err
}
