package resilience

import (
	"context"
	"time"
)

// Policy holds the retry policy for a network-facing operation
type Policy struct {
	MaxAttempts  int                          // Maximum number of attempts (at least 1)
	InitialDelay time.Duration                // Delay before the second attempt
	MaxDelay     time.Duration                // Delay ceiling
	OnRetry      func(attempt int, err error) // Optional observer, invoked before each retry delay
}

// DefaultPolicy returns the process-wide default retry policy
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

// RetryableFunc is an operation that can be retried
type RetryableFunc func() error

// Do executes fn with retry and exponential backoff. On success the result is
// returned immediately with no further attempts. Once MaxAttempts have been
// made, the last attempt's error is returned unchanged. Between attempts the
// delay doubles from InitialDelay, capped at MaxDelay, with no jitter. The
// inter-attempt sleep honors ctx cancellation.
//
// Do keeps all mutable state on the stack, so a single Policy value is safe
// to share across concurrent invocations.
func Do(ctx context.Context, policy Policy, fn RetryableFunc) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(Delay(policy, attempt)):
		}
	}

	return lastErr
}

// Delay returns the backoff delay that follows the given failed attempt
// (1-based): min(InitialDelay * 2^(attempt-1), MaxDelay).
func Delay(policy Policy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := policy.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= policy.MaxDelay {
			return policy.MaxDelay
		}
	}
	if delay > policy.MaxDelay {
		return policy.MaxDelay
	}
	return delay
}
