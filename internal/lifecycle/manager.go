package lifecycle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"option_bot/internal/models"
	"option_bot/internal/venue"
	"option_bot/pkg/retry"

	"github.com/pkg/errors"
)

// State — фаза жизненного цикла сделки. Одновременно открыта
// максимум одна сделка, новые сигналы вне Idle игнорируются.
type State string

const (
	StateIdle     State = "IDLE"
	StatePlacing  State = "PLACING"
	StateOpen     State = "OPEN"
	StateSettling State = "SETTLING"
)

// ErrBlocked — постановка невозможна: уже есть активная сделка
// или выбран дневной лимит сделок.
var ErrBlocked = errors.New("trade placement blocked")

type Config struct {
	MaxTrades        int
	PlaceMaxAttempts int
	PlaceRetryDelay  time.Duration
}

// Manager держит состояние цикла и счётчики результативности.
// Все переходы и апдейты счётчиков строго под одним mu.
type Manager struct {
	v   venue.Venue
	cfg Config

	place retry.Policy

	mu       sync.Mutex
	state    State
	counters models.PerformanceCounters
	current  *models.TradeRecord
	seq      int
}

func New(v venue.Venue, cfg Config) *Manager {
	return &Manager{
		v:   v,
		cfg: cfg,
		place: retry.Policy{
			MaxAttempts: cfg.PlaceMaxAttempts,
			Backoff:     retry.Constant(cfg.PlaceRetryDelay),
			Classify:    venue.Classify,
		},
		state: StateIdle,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Counters() models.PerformanceCounters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters
}

// Current — копия активной сделки, nil в Idle.
func (m *Manager) Current() *models.TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	rec := *m.current
	return &rec
}

// Place ставит ордер с ретраями. Недоступный binary переключает
// класс на digital для следующей попытки. При исчерпании попыток
// сделка помечается FAILED, счётчик сделок не трогаем.
func (m *Manager) Place(ctx context.Context, intent models.TradeIntent, entryPrice float64) (*models.TradeRecord, error) {
	m.mu.Lock()
	if m.state != StateIdle {
		state := m.state
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: state %s", ErrBlocked, state)
	}
	if m.cfg.MaxTrades > 0 && m.counters.TradeCount >= m.cfg.MaxTrades {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: daily trade limit %d reached", ErrBlocked, m.cfg.MaxTrades)
	}
	m.state = StatePlacing
	m.seq++
	rec := &models.TradeRecord{
		ID:         fmt.Sprintf("local-%d", m.seq),
		Intent:     intent,
		Instrument: models.InstrumentBinary,
		EntryPrice: entryPrice,
		Status:     models.StatusPending,
	}
	m.current = rec
	m.mu.Unlock()

	class := models.InstrumentBinary
	var contractID string
	err := m.place.Do(ctx, "place order", func(ctx context.Context, attempt int) error {
		// каждая попытка — пара: сначала binary, при недоступности
		// тут же digital. Только проваленная пара тратит попытку.
		class = models.InstrumentBinary
		id, err := m.placeClass(ctx, intent, class)
		if errors.Is(err, venue.ErrInstrumentUnavailable) {
			log.Printf("[LIFECYCLE] attempt %d: %s unavailable, falling back to %s",
				attempt, models.InstrumentBinary, models.InstrumentDigital)
			class = models.InstrumentDigital
			id, err = m.placeClass(ctx, intent, class)
		}
		if err != nil {
			log.Printf("[LIFECYCLE] place attempt %d (%s) failed: %v", attempt, class, err)
			return err
		}
		contractID = id
		return nil
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		rec.Status = models.StatusFailed
		rec.Instrument = class // последний пробованный класс
		rec.RetryCount = m.cfg.PlaceMaxAttempts
		m.state = StateIdle
		m.current = nil
		failed := *rec
		return &failed, err
	}

	rec.ID = contractID
	rec.Instrument = class
	rec.Status = models.StatusOpen
	m.state = StateOpen
	m.counters.TradeCount++
	out := *rec
	return &out, nil
}

func (m *Manager) placeClass(ctx context.Context, intent models.TradeIntent, class models.InstrumentClass) (string, error) {
	return m.v.PlaceOrder(ctx, venue.OrderRequest{
		Asset:           intent.Asset,
		Direction:       intent.Direction,
		Stake:           intent.Stake,
		DurationMinutes: intent.DurationMinutes,
		Instrument:      class,
	})
}

// Settle — один опрос результата. До расчёта остаёмся в Settling
// (для внешнего наблюдателя сделка всё ещё открыта — Open и Settling
// различаются только тем, что опрос уже начался), по расчёту
// обновляем счётчики и возвращаемся в Idle.
func (m *Manager) Settle(ctx context.Context) (*models.TradeRecord, bool, error) {
	m.mu.Lock()
	if m.state != StateOpen && m.state != StateSettling {
		state := m.state
		m.mu.Unlock()
		return nil, false, errors.Errorf("settle in state %s", state)
	}
	m.state = StateSettling
	m.current.Status = models.StatusSettling
	id := m.current.ID
	m.mu.Unlock()

	res, err := m.v.CheckResult(ctx, id)
	if err != nil {
		return nil, false, errors.Wrap(err, "check result")
	}
	if !res.Settled {
		return nil, false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.current
	rec.ProfitLoss = res.Profit
	rec.Status = models.StatusSettled
	rec.SettledAt = time.Now()

	m.counters.TotalProfit += res.Profit
	if res.Profit > 0 {
		m.counters.Wins++
	} else {
		m.counters.Losses++
	}

	m.state = StateIdle
	m.current = nil
	out := *rec
	return &out, true, nil
}

// Restore заливает дневной P/L из журнала после рестарта процесса:
// дневной стоп должен пережить перезапуск. Остальные счётчики
// набираются заново по ходу сессии.
func (m *Manager) Restore(totalProfit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters.TotalProfit = totalProfit
}

// Abandon сбрасывает цикл в Idle без зачёта результата,
// пришедший позже результат только логируется.
func (m *Manager) Abandon(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return
	}
	log.Printf("[LIFECYCLE] abandon trade in state %s: %s", m.state, reason)
	m.state = StateIdle
	m.current = nil
}
