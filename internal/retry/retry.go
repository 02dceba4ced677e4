// Package retry provides a generic retry decorator with exponential backoff.
// The operation, the outcome classifier, and the backoff policy are decoupled
// so each can be tested and reused independently.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy defines the backoff schedule.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultPolicy waits 2s, 4s, 8s, 16s, 32s, 60s between its 7 attempts.
var DefaultPolicy = Policy{
	MaxAttempts:  7,
	InitialDelay: 2 * time.Second,
	MaxDelay:     60 * time.Second,
	Multiplier:   2.0,
}

// Outcome is the classifier's verdict on one attempt.
type Outcome int

const (
	// Success stops retrying and returns the result.
	Success Outcome = iota
	// Retry schedules another attempt after the backoff delay.
	Retry
	// Fatal stops immediately and returns the error without further attempts.
	Fatal
)

// Do runs op until classify reports Success or Fatal, or the policy's attempts
// are exhausted. classify sees the raw (result, error) pair of each attempt;
// on exhaustion the last error is returned wrapped with the attempt count.
func Do[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error), classify func(T, error) Outcome) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		result, err := op(ctx)

		switch classify(result, err) {
		case Success:
			return result, nil
		case Fatal:
			return zero, err
		}

		lastErr = err
		if attempt == policy.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(policy.delay(attempt)):
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("retryable response persisted")
	}
	return zero, fmt.Errorf("gave up after %d attempts: %w", policy.MaxAttempts, lastErr)
}

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}
