package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCapabilityRetryConfigBudget(t *testing.T) {
	cfg := CapabilityRetryConfig()
	if cfg.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2 (one retry)", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 10*time.Second {
		t.Errorf("InitialDelay = %v, want 10s", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.BackoffFactor != 2.0 {
		t.Errorf("BackoffFactor = %v, want 2.0", cfg.BackoffFactor)
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 10 * time.Second},
		{1, 20 * time.Second},
		{2, 30 * time.Second}, // capped, raw would be 40s
		{5, 30 * time.Second},
	}
	for _, tt := range tests {
		got := CalculateBackoff(tt.attempt, 10*time.Second, 30*time.Second, 2.0)
		if got != tt.want {
			t.Errorf("CalculateBackoff(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryStopsAfterBudget(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	calls := 0
	wantErr := errors.New("still failing")
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Retry = %v, want last error", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetrySucceedsOnRetry(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
