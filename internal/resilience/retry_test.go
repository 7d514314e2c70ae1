package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), DefaultPolicy(), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestDo_FailureThenSuccess(t *testing.T) {
	policy := Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
	}

	attempts := 0
	err := Do(context.Background(), policy, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestDo_ExhaustedReturnsLastError(t *testing.T) {
	policy := Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
	}

	attempts := 0
	lastErr := errors.New("attempt 3 error")
	err := Do(context.Background(), policy, func() error {
		attempts++
		if attempts == 3 {
			return lastErr
		}
		return errors.New("earlier error")
	})

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("Expected the final attempt's error unchanged, got %v", err)
	}
}

func TestDo_ObserverSeesEachFailure(t *testing.T) {
	type retryEvent struct {
		attempt int
		err     error
	}

	var events []retryEvent
	policy := Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		OnRetry: func(attempt int, err error) {
			events = append(events, retryEvent{attempt, err})
		},
	}

	attempts := 0
	_ = Do(context.Background(), policy, func() error {
		attempts++
		return errors.New("persistent error")
	})

	// The observer fires before each delay, so never after the final attempt.
	if len(events) != 2 {
		t.Fatalf("Expected 2 observer invocations, got %d", len(events))
	}
	for i, ev := range events {
		if ev.attempt != i+1 {
			t.Errorf("Expected observer attempt %d, got %d", i+1, ev.attempt)
		}
		if ev.err == nil {
			t.Errorf("Expected observer to receive the error")
		}
	}
}

func TestDo_NoDelayAfterSuccess(t *testing.T) {
	policy := Policy{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     time.Second,
	}

	attempts := 0
	start := time.Now()
	err := Do(context.Background(), policy, func() error {
		attempts++
		if attempts < 2 {
			return errors.New("temporary error")
		}
		return nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
	// One inter-attempt delay only: well under two full delays.
	if elapsed >= 400*time.Millisecond {
		t.Errorf("Expected a single backoff delay, elapsed %v", elapsed)
	}
}

func TestDo_ContextCancelAbortsDelay(t *testing.T) {
	policy := Policy{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Second,
		MaxDelay:     10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, policy, func() error {
			attempts++
			return errors.New("failure")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		attempt  int
		expected time.Duration
	}{
		{"first retry", Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}, 1, 100 * time.Millisecond},
		{"second retry doubles", Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}, 2, 200 * time.Millisecond},
		{"third retry doubles again", Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}, 3, 400 * time.Millisecond},
		{"capped at max", Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}, 6, time.Second},
		{"initial above max", Policy{InitialDelay: 2 * time.Second, MaxDelay: time.Second}, 1, time.Second},
		{"attempt below one clamps", Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}, 0, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Delay(tt.policy, tt.attempt); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
