package balance

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
)

// RetryPolicy bounds how often an atomic unit is re-run after a write conflict
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64 // 0.0-1.0
}

// DefaultRetryPolicy returns the default retry configuration
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		BaseDelay:    10 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		JitterFactor: 0.2,
	}
}

// backoff computes baseDelay * 2^attempt, capped at MaxDelay, plus jitter
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	backoff := p.BaseDelay << uint(attempt)
	if backoff <= 0 || (p.MaxDelay > 0 && backoff > p.MaxDelay) {
		backoff = p.MaxDelay
	}

	if p.JitterFactor > 0 {
		backoff += time.Duration(float64(backoff) * p.JitterFactor * rand.Float64())
	}

	return backoff
}

// retryOnConflict runs fn until it succeeds, fails with a non-conflict error,
// or the policy is exhausted. Exhaustion surfaces ErrConflict.
func (s *Service) retryOnConflict(ctx context.Context, operation string, fn func() error) error {
	attempts := s.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil || !errs.IsConflictError(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		s.metrics.ObserveRetry(operation)
		backoff := s.retry.backoff(attempt)
		s.logger.Warn("Write conflict, retrying atomic unit", map[string]any{
			"operation":   operation,
			"attempt":     attempt + 1,
			"max_retries": attempts,
			"error":       err.Error(),
			"retry_after": backoff.String(),
		})

		if backoff == 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}

		select {
		case <-s.timeProvider.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.logger.Error("All retry attempts failed", map[string]any{
		"operation": operation,
		"attempts":  attempts,
		"error":     err.Error(),
	})

	return fmt.Errorf("retries exhausted after %d attempts: %w", attempts, err)
}
