package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoStopsOnTerminal(t *testing.T) {
	calls := 0
	p := Policy{
		MaxAttempts: 5,
		Backoff:     Constant(time.Second),
		Classify: func(err error) Class {
			if errors.Is(err, errAuth) {
				return Terminal
			}
			return Transient
		},
		Sleep: func(context.Context, time.Duration) error { return nil },
	}

	err := p.Do(context.Background(), "connect", func(_ context.Context, _ int) error {
		calls++
		return errAuth
	})
	if err == nil {
		t.Fatalf("expected terminal error")
	}
	if calls != 1 {
		t.Fatalf("terminal error must not be retried, got %d calls", calls)
	}
}

var errAuth = errors.New("invalid credentials")

func TestDoLinearBackoffSchedule(t *testing.T) {
	var waits []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Linear(5 * time.Second),
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	err := p.Do(context.Background(), "connect", func(_ context.Context, _ int) error {
		return errors.New("timeout")
	})
	if err == nil {
		t.Fatalf("expected exhaustion error")
	}
	if len(waits) != 2 {
		t.Fatalf("expected 2 sleeps between 3 attempts, got %d", len(waits))
	}
	if waits[0] != 5*time.Second || waits[1] != 10*time.Second {
		t.Fatalf("wrong schedule: %v", waits)
	}
}

func TestDoSucceedsMidway(t *testing.T) {
	calls := 0
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Constant(0),
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}

	err := p.Do(context.Background(), "place", func(_ context.Context, _ int) error {
		calls++
		if calls < 2 {
			return errors.New("rejected")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected success on second attempt, got %d calls", calls)
	}
}

func TestDoRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, Backoff: Constant(time.Millisecond)}
	err := p.Do(ctx, "connect", func(context.Context, int) error {
		t.Fatalf("fn must not run after cancel")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
