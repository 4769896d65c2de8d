package embedding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/config"
)

type RetryClient struct {
	inner      application.EmbeddingClient
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryClient(inner application.EmbeddingClient, cfg config.RetryConfig) application.EmbeddingClient {
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: cfg.MaxRetries,
	}
}

// Embed with retry logic. The request value is reused unchanged on every
// attempt so the remote side sees an identical payload each time.
func (r *RetryClient) Embed(ctx context.Context, req application.EmbedRequest) (*application.EmbedResponse, error) {
	var lastErr error

	// maxRetries retries on top of the initial attempt
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := r.inner.Embed(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// Health is a point-in-time probe; callers poll it, so no retry.
func (r *RetryClient) Health(ctx context.Context) error {
	return r.inner.Health(ctx)
}

func isRetryable(err error) bool {
	if embErr, ok := application.IsEmbeddingError(err); ok {
		return embErr.IsRetryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(50)) * time.Millisecond

	return base + jitter
}
