package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

// Retrier applies bounded exponential backoff to provider calls.
// Exhaustion surfaces models.ErrProviderUnavailable; the caller treats that
// as a retryable failure of the single item, not the whole session.
type Retrier struct {
	maxAttempts int
	callTimeout time.Duration
}

// NewRetrier creates a retrier. maxAttempts includes the first try;
// callTimeout bounds each individual attempt.
func NewRetrier(maxAttempts int, callTimeout time.Duration) Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return Retrier{maxAttempts: maxAttempts, callTimeout: callTimeout}
}

// Do runs fn with per-attempt timeouts and exponential backoff between
// attempts. Caller cancellation stops retrying immediately.
func (r Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second

	attempt := 0
	run := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		// Caller cancellation is not a provider fault; stop retrying.
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		slog.Warn("provider call failed", "op", op, "attempt", attempt, "error", err)
		return err
	}

	err := backoff.Retry(run, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(r.maxAttempts-1)), ctx))
	if err == nil {
		return nil
	}
	// Distinguish caller cancellation from a timed-out attempt: only the
	// former carries the parent context's error.
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %v", models.ErrProviderUnavailable, op, attempt, err)
}
