package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig bounds every attempt with Timeout and retries temporary
// failures up to Retries extra times, waiting Backoff between attempts.
type RetryConfig struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
	Logger  zerolog.Logger
}

// RetryingGenerator decorates a Generator with a per-attempt timeout and a bounded retry.
// A retried transport failure means one submit can reach the provider more than
// once; Retries set to zero keeps it to a single outbound call.
type RetryingGenerator struct {
	next Generator
	cfg  RetryConfig
}

// NewRetryingGenerator wraps next. A zero Timeout disables the per-attempt deadline.
func NewRetryingGenerator(next Generator, cfg RetryConfig) *RetryingGenerator {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &RetryingGenerator{next: next, cfg: cfg}
}

// Generate runs the wrapped generator until it succeeds, fails permanently or runs out of attempts.
func (r *RetryingGenerator) Generate(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.Retries; attempt++ {
		if attempt > 0 {
			r.cfg.Logger.Debug().Err(lastErr).Int("attempt", attempt+1).Msg("retrying language model request")
			if err := sleep(ctx, r.cfg.Backoff); err != nil {
				return ChatResponse{}, lastErr
			}
		}

		resp, err := r.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsTemporary(err) || ctx.Err() != nil {
			break
		}
	}
	return ChatResponse{}, lastErr
}

func (r *RetryingGenerator) attempt(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if r.cfg.Timeout <= 0 {
		return r.next.Generate(ctx, req)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	return r.next.Generate(attemptCtx, req)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
