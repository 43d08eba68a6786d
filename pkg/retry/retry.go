package retry

import (
	"context"
	"fmt"
	"time"
)

// Class — транзиентная или терминальная ошибка.
// Терминальные (невалидный токен и т.п.) не ретраим вообще.
type Class int

const (
	Transient Class = iota
	Terminal
)

type Classifier func(err error) Class

// AlwaysTransient — поведение старых ретрай-циклов: ретраим всё подряд.
func AlwaysTransient(error) Class { return Transient }

// Backoff возвращает паузу перед следующей попыткой.
// attempt считается с единицы.
type Backoff func(attempt int) time.Duration

func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Linear — d, 2d, 3d... (как 5s × attempt у коннекта).
func Linear(step time.Duration) Backoff {
	return func(attempt int) time.Duration { return step * time.Duration(attempt) }
}

// Policy — единая точка для всех ретраев: коннект, постановка ордера.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Classify    Classifier

	// Sleep подменяется в тестах. nil => честный sleep с учётом ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do гоняет fn до успеха, терминальной ошибки или исчерпания попыток.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context, attempt int) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = AlwaysTransient
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if classify(lastErr) == Terminal {
			return fmt.Errorf("%s: terminal on attempt %d: %w", op, attempt, lastErr)
		}
		if attempt == p.MaxAttempts {
			break
		}
		if p.Backoff != nil {
			if err := p.sleep(ctx, p.Backoff(attempt)); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	return fmt.Errorf("%s: %d attempts exhausted: %w", op, p.MaxAttempts, lastErr)
}
