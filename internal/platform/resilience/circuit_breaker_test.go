package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(threshold int, openTimeout time.Duration, probes int) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   probes,
	})
	now := time.Date(2025, 9, 13, 14, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b, now := newTestBreaker(2, 5*time.Second, 1)

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	*now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	b, now := newTestBreaker(1, time.Second, 1)

	b.RecordFailure()
	*now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe: %v", err)
	}
	b.RecordFailure()

	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failed probe, got %s", state)
	}
}

func TestCircuitBreaker_DoIgnoresNonTrippingErrors(t *testing.T) {
	b, _ := newTestBreaker(1, time.Minute, 1)
	notFound := errors.New("not found")

	err := b.Do(func() error { return notFound }, func(err error) bool { return !errors.Is(err, notFound) })
	if !errors.Is(err, notFound) {
		t.Fatalf("expected fn error to be returned, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after non-tripping error, got %s", state)
	}

	_ = b.Do(func() error { return errors.New("503") }, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after tripping error, got %s", state)
	}
}

func TestCircuitBreaker_NilPassesThrough(t *testing.T) {
	var b *CircuitBreaker
	called := false
	if err := b.Do(func() error { called = true; return nil }, nil); err != nil || !called {
		t.Fatalf("expected nil breaker to run fn, called=%v err=%v", called, err)
	}
	if NewCircuitBreakerIfEnabled(CircuitBreakerConfig{Enabled: false}) != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
}

func TestCircuitBreaker_ReportsStateChanges(t *testing.T) {
	var changes []string
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Second,
		OnStateChange: func(from, to CircuitState) {
			changes = append(changes, string(from)+"->"+string(to))
		},
	})
	now := time.Date(2025, 9, 13, 14, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to be admitted: %v", err)
	}
	b.RecordSuccess()

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(changes) != len(want) {
		t.Fatalf("unexpected transitions: %v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("transition %d: got %s want %s", i, changes[i], want[i])
		}
	}
}
