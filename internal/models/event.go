package models

import "time"

// EventAction — что произошло в пайплайне.
type EventAction string

const (
	EventConnected  EventAction = "CONNECTED"
	EventSignal     EventAction = "SIGNAL"
	EventTradeOpen  EventAction = "TRADE_OPEN"
	EventTradeFail  EventAction = "TRADE_FAIL"
	EventSettlement EventAction = "SETTLEMENT"
	EventLateResult EventAction = "LATE_RESULT"
)

// Event — структурное событие наружу (лог/журнал). Ядро не знает,
// куда оно уедет: файл, БД, telegram — это дело коллаборатора.
type Event struct {
	Timestamp time.Time
	Action    EventAction
	Price     float64
	Snapshot  *IndicatorSnapshot
	Trade     *TradeRecord
	Result    string
}
