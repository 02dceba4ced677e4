package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fastPolicy keeps test runtime negligible.
var fastPolicy = Policy{
	MaxAttempts:  7,
	InitialDelay: time.Millisecond,
	MaxDelay:     4 * time.Millisecond,
	Multiplier:   2.0,
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy,
		func(context.Context) (string, error) {
			calls++
			return "ok", nil
		},
		func(s string, err error) Outcome {
			if err == nil {
				return Success
			}
			return Retry
		},
	)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy,
		func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		},
		func(n int, err error) Outcome {
			if err == nil {
				return Success
			}
			return Retry
		},
	)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d, want 42", result)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	calls := 0
	fatal := errors.New("not found")
	_, err := Do(context.Background(), fastPolicy,
		func(context.Context) (string, error) {
			calls++
			return "", fatal
		},
		func(s string, err error) Outcome {
			return Fatal
		},
	)
	if !errors.Is(err, fatal) {
		t.Fatalf("err = %v, want the fatal error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := errors.New("503")
	_, err := Do(context.Background(), fastPolicy,
		func(context.Context) (string, error) {
			calls++
			return "", transient
		},
		func(s string, err error) Outcome {
			return Retry
		},
	)
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != 7 {
		t.Errorf("calls = %d, want 7", calls)
	}
	if !errors.Is(err, transient) {
		t.Errorf("exhaustion error should wrap the last error, got %v", err)
	}
	if !strings.Contains(err.Error(), "7 attempts") {
		t.Errorf("error should mention attempt count, got %v", err)
	}
}

func TestDo_RetryableResultWithoutError(t *testing.T) {
	// A classifier can demand a retry even when op returned no error,
	// e.g. a 429 response body. Exhaustion must still produce an error.
	_, err := Do(context.Background(), Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2},
		func(context.Context) (int, error) {
			return 429, nil
		},
		func(n int, err error) Outcome {
			return Retry
		},
	)
	if err == nil {
		t.Fatal("expected error after exhausting retries on retryable results")
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, policy,
		func(context.Context) (string, error) {
			return "", errors.New("transient")
		},
		func(s string, err error) Outcome {
			return Retry
		},
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPolicy_DelayCapped(t *testing.T) {
	p := Policy{InitialDelay: 2 * time.Second, MaxDelay: 60 * time.Second, Multiplier: 2.0}

	want := []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 32 * time.Second, 60 * time.Second, 60 * time.Second,
	}
	for i, w := range want {
		if got := p.delay(i); got != w {
			t.Errorf("delay(%d) = %v, want %v", i, got, w)
		}
	}
}
