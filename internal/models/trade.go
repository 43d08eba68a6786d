package models

import "time"

// InstrumentClass — класс инструмента у венью.
// Постановка сначала идёт в binary, при недоступности — фолбэк в digital
// внутри той же попытки.
type InstrumentClass string

const (
	InstrumentBinary  InstrumentClass = "binary"
	InstrumentDigital InstrumentClass = "digital"
)

type TradeStatus string

const (
	StatusPending  TradeStatus = "PENDING"
	StatusOpen     TradeStatus = "OPEN"
	StatusSettling TradeStatus = "SETTLING"
	StatusSettled  TradeStatus = "SETTLED"
	StatusFailed   TradeStatus = "FAILED"
)

type TradeIntent struct {
	Asset           string
	Direction       Direction
	Stake           float64
	DurationMinutes int
	CreatedAt       time.Time
}

type TradeRecord struct {
	ID         string
	Intent     TradeIntent
	Instrument InstrumentClass
	EntryPrice float64
	ExitPrice  float64
	ProfitLoss float64
	Status     TradeStatus
	RetryCount int
	SettledAt  time.Time
}

// PerformanceCounters обновляются только в момент расчёта сделки,
// целиком под одним локом. Частичных апдейтов не бывает.
type PerformanceCounters struct {
	Wins        int
	Losses      int
	TradeCount  int
	TotalProfit float64
}

func (c PerformanceCounters) WinRate() float64 {
	done := c.Wins + c.Losses
	if done == 0 {
		return 0
	}
	return float64(c.Wins) / float64(done) * 100
}
