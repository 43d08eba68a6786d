package strategy

import "option_bot/internal/models"

type Config struct {
	RSIOverbought float64
	RSIOSold      float64

	// Доля выполненных условий, с которой сигнал вообще рассматривается.
	MinSignalStrength float64
	// reward:risk до противоположной/своей полосы Боллинджера.
	RiskRewardRatio float64

	// Дневной стоп: totalProfit ≤ MaxDailyLoss → только Hold.
	MaxDailyLoss float64
}

// Evaluator — то, что раннер дергает на каждом тике.
// Снапшот и счётчики приходят снаружи, внутри только решение.
type Evaluator interface {
	Evaluate(snap models.IndicatorSnapshot, price float64, counters models.PerformanceCounters) models.Signal
	Dump() string
}

// dailyLossGate — общий для обеих политик. Газ перекрыт — сигналов нет,
// что бы ни говорили индикаторы.
func dailyLossGate(cfg Config, counters models.PerformanceCounters) (models.Signal, bool) {
	if counters.TotalProfit <= cfg.MaxDailyLoss {
		return models.HoldSignal(models.ConditionResult{Name: "daily_loss_gate", Met: true}), true
	}
	return models.Signal{}, false
}
