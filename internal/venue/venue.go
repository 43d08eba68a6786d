package venue

import (
	"context"
	"errors"
	"time"

	"option_bot/internal/models"
	"option_bot/pkg/retry"
)

// Ошибки венью. Auth — терминальная: ретраить бессмысленно,
// остальное считаем транзиентным.
var (
	ErrAuth                  = errors.New("venue: authorization failed")
	ErrInstrumentUnavailable = errors.New("venue: instrument class unavailable")
	ErrOrderRejected         = errors.New("venue: order rejected")
)

// ConnectInfo — что венью сообщает при успешном коннекте.
type ConnectInfo struct {
	Balance float64
	Mode    string // PRACTICE | REAL
}

type OrderRequest struct {
	Asset           string
	Direction       models.Direction
	Stake           float64
	DurationMinutes int
	Instrument      models.InstrumentClass
}

// Result — исход опроса контракта.
type Result struct {
	Settled bool
	Profit  float64
}

// Venue — узкий порт до внешней площадки. Ядро не знает про wire-формат.
type Venue interface {
	Connect(ctx context.Context) (ConnectInfo, error)
	GetCandles(ctx context.Context, asset string, granularitySec, count int, end time.Time) ([]models.Candle, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)
	CheckResult(ctx context.Context, id string) (Result, error)
}

// TickStreamer — поток тиков; отдельный интерфейс, чтобы ядро
// могло жить и на поллинге свечей.
type TickStreamer interface {
	StreamTicks(ctx context.Context, asset string) <-chan models.Tick
}

// Classify — авторизация терминальна, всё остальное ретраим.
func Classify(err error) retry.Class {
	if errors.Is(err, ErrAuth) {
		return retry.Terminal
	}
	return retry.Transient
}
