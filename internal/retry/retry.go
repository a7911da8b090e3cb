package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy bounds how many times an operation runs and how long it backs
// off between tries.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
}

// Do runs operation until it succeeds, the attempts run out, or ctx ends.
// Each attempt gets its own timeout when AttemptTimeout is set.
func Do[T any](ctx context.Context, policy Policy, operation func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		var result T
		var err error
		if policy.AttemptTimeout > 0 {
			opCtx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
			result, err = operation(opCtx)
			cancel()
		} else {
			result, err = operation(ctx)
		}

		if err == nil {
			return result, nil
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Msg("Operation failed")

		if attempt == attempts {
			return zero, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
		}

		delay := backoffDelay(attempt-1, policy.BaseDelay, policy.MaxDelay)
		log.Debug().
			Dur("delay", delay).
			Int("next_attempt", attempt+1).
			Msg("Retrying after delay")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("unexpected: exceeded retry loop")
}

func backoffDelay(retries int, baseDelay, maxDelay time.Duration) time.Duration {
	// Cap the shift at 30 to prevent overflow (2^30 is safe for int)
	safeRetries := min(retries, 30)
	multiplier := 1 << safeRetries
	delay := time.Duration(multiplier) * baseDelay

	if delay > maxDelay {
		delay = maxDelay
	}

	// Add jitter to prevent thundering herd - random between 0.5x and 1.5x
	jitter := 0.5 + rand.Float64()
	delay = time.Duration(float64(delay) * jitter)

	// Ensure we don't exceed maxDelay after jitter
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}
