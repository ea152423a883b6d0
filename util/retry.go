package util

import (
	"context"
	"errors"
	"fmt"
	"github.com/cenkalti/backoff"
	"time"
)

// RetryFunc are functions that must be retried.
type RetryFunc func(attempt int) (retry bool, err error)

// BackoffFunc returns how long to wait before the attempt that follows attempt.
type BackoffFunc func(attempt int) time.Duration

var (
	ErrExhaustedAllRetryAttempts = errors.New("exhausted all attempts")
	ErrRetryContextExpired       = errors.New("retry context/timeout expired")
)

// DoRetryWithContext calls fn until it asks not to be retried, numAttempts is reached or the context expires.
// numAttempts <= 0 means no cap. The wait between attempts ends early when the context does. The error of the
// last attempt is wrapped along with ErrExhaustedAllRetryAttempts or ErrRetryContextExpired.
func DoRetryWithContext(ctx context.Context, fn RetryFunc, bfn BackoffFunc, numAttempts int) error {
	var lastErr error
	for attempt := 1; numAttempts <= 0 || attempt <= numAttempts; attempt++ {
		if ctx.Err() != nil {
			return contextExpired(ctx, lastErr)
		}
		retry, err := fn(attempt)
		if !retry {
			return err
		}
		lastErr = err
		if numAttempts > 0 && attempt == numAttempts {
			break
		}
		timer := time.NewTimer(bfn(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return contextExpired(ctx, lastErr)
		case <-timer.C:
		}
	}
	if lastErr == nil {
		return ErrExhaustedAllRetryAttempts
	}
	return fmt.Errorf("%w: %w", ErrExhaustedAllRetryAttempts, lastErr)
}

func contextExpired(ctx context.Context, lastErr error) error {
	if lastErr == nil {
		return fmt.Errorf("%w: %w", ErrRetryContextExpired, ctx.Err())
	}
	return fmt.Errorf("%w: %w (last attempt: %v)", ErrRetryContextExpired, ctx.Err(), lastErr)
}

// NewBackoffFn returns exponential back offs capped at maxInterval. The sequence restarts whenever attempt 1
// asks for its back off.
func NewBackoffFn(initialInterval time.Duration, maxInterval time.Duration) BackoffFunc {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     initialInterval,
		RandomizationFactor: 0.2,
		Multiplier:          1.5,
		MaxInterval:         maxInterval,
		MaxElapsedTime:      0, // Never stop the timer.
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return func(attempt int) time.Duration {
		if attempt <= 1 {
			b.Reset()
		}
		return b.NextBackOff()
	}
}
