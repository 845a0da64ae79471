package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBreaker(now *time.Time) *CircuitBreaker {
	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1})
	b.now = func() time.Time { return *now }
	return b
}

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b := newTestBreaker(&now)

	var changes []CircuitState
	b.OnStateChange(func(_, to CircuitState) { changes = append(changes, to) })

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

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open trial call to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second trial call to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open trial call, got %s", state)
	}

	want := []CircuitState{CircuitStateOpen, CircuitStateHalfOpen, CircuitStateClosed}
	if len(changes) != len(want) {
		t.Fatalf("unexpected transitions: %v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("unexpected transitions: %v", changes)
		}
	}
}

func TestCircuitBreaker_ExecuteIgnoresCallerCancellation(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b := newTestBreaker(&now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		err := b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context error, got %v", err)
		}
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("cancelled calls must not open the breaker, got %s", state)
	}

	boom := errors.New("webhook 500")
	for i := 0; i < 2; i++ {
		_ = b.Execute(context.Background(), func(context.Context) error { return boom })
	}
	if err := b.Execute(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open breaker to short circuit, got %v", err)
	}
}
