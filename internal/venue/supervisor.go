package venue

import (
	"context"
	"log"
	"time"

	"option_bot/pkg/retry"
)

// Supervisor оборачивает Connect ретраями с линейным бэкоффом
// (5s × номер попытки). На ошибке авторизации останавливается сразу.
type Supervisor struct {
	v      Venue
	policy retry.Policy
}

func NewSupervisor(v Venue, maxAttempts int, backoffStep time.Duration) *Supervisor {
	return &Supervisor{
		v: v,
		policy: retry.Policy{
			MaxAttempts: maxAttempts,
			Backoff:     retry.Linear(backoffStep),
			Classify:    Classify,
		},
	}
}

func (s *Supervisor) Connect(ctx context.Context) (ConnectInfo, error) {
	var info ConnectInfo
	err := s.policy.Do(ctx, "venue connect", func(ctx context.Context, attempt int) error {
		log.Printf("[VENUE] connect attempt %d/%d", attempt, s.policy.MaxAttempts)
		var cErr error
		info, cErr = s.v.Connect(ctx)
		if cErr != nil {
			log.Printf("[VENUE] connect failed: %v", cErr)
		}
		return cErr
	})
	if err != nil {
		return ConnectInfo{}, err
	}
	return info, nil
}
