package resilience

import (
	"errors"
	"testing"
	"time"
)

var errAdvisory = errors.New("advisory call failed")

func testBreaker(cooldown time.Duration) (*Breaker, func(time.Duration)) {
	b := NewBreaker("test", BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Cooldown:         cooldown,
	})
	clock := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	advance := func(d time.Duration) { clock = clock.Add(d) }
	return b, advance
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := testBreaker(time.Minute)

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() before threshold = %v", err)
		}
		b.Record(errAdvisory)
	}
	if got := b.State(); got != BreakerClosed {
		t.Fatalf("state after 2 failures = %v, want CLOSED", got)
	}

	b.Record(errAdvisory)
	if got := b.State(); got != BreakerOpen {
		t.Fatalf("state after 3 failures = %v, want OPEN", got)
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("Allow() while open = %v, want ErrBreakerOpen", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b, _ := testBreaker(time.Minute)

	b.Record(errAdvisory)
	b.Record(errAdvisory)
	b.Record(nil)
	b.Record(errAdvisory)
	b.Record(errAdvisory)

	if got := b.State(); got != BreakerClosed {
		t.Fatalf("state = %v, want CLOSED after interleaved success", got)
	}
}

func TestBreakerProbesAfterCooldown(t *testing.T) {
	b, advance := testBreaker(time.Minute)

	for i := 0; i < 3; i++ {
		b.Record(errAdvisory)
	}

	advance(30 * time.Second)
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("Allow() mid-cooldown = %v, want ErrBreakerOpen", err)
	}

	advance(31 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after cooldown = %v, want probe admitted", err)
	}
	if got := b.State(); got != BreakerProbing {
		t.Fatalf("state after cooldown = %v, want PROBING", got)
	}

	b.Record(nil)
	if got := b.State(); got != BreakerClosed {
		t.Fatalf("state after successful probe = %v, want CLOSED", got)
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b, advance := testBreaker(time.Minute)

	for i := 0; i < 3; i++ {
		b.Record(errAdvisory)
	}
	advance(time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() probe = %v", err)
	}

	b.Record(errAdvisory)
	if got := b.State(); got != BreakerOpen {
		t.Fatalf("state after failed probe = %v, want OPEN", got)
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("Allow() after failed probe = %v, want ErrBreakerOpen", err)
	}

	// The failed probe restarts the full cooldown.
	advance(time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after second cooldown = %v", err)
	}
}

func TestBreakerStats(t *testing.T) {
	b, _ := testBreaker(time.Minute)

	b.Record(nil)
	for i := 0; i < 3; i++ {
		b.Record(errAdvisory)
	}
	_ = b.Allow()

	stats := b.Stats()
	if stats.TotalCalls != 4 {
		t.Errorf("TotalCalls = %d, want 4", stats.TotalCalls)
	}
	if stats.TotalFailures != 3 {
		t.Errorf("TotalFailures = %d, want 3", stats.TotalFailures)
	}
	if stats.TotalRejected != 1 {
		t.Errorf("TotalRejected = %d, want 1", stats.TotalRejected)
	}
	if stats.State != BreakerOpen {
		t.Errorf("State = %v, want OPEN", stats.State)
	}
}
