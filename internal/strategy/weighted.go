package strategy

import (
	"fmt"

	"option_bot/internal/models"
)

// Weighted — мультиподтверждение: пять именованных условий на сторону,
// strength = доля выполненных. Сигнал проходит только при
// strength ≥ MinSignalStrength И reward:risk ≥ RiskRewardRatio.
type Weighted struct {
	cfg Config

	lastBuy  float64
	lastSell float64
}

func NewWeighted(cfg Config) *Weighted {
	return &Weighted{cfg: cfg}
}

func (w *Weighted) Evaluate(snap models.IndicatorSnapshot, price float64, counters models.PerformanceCounters) models.Signal {
	if sig, gated := dailyLossGate(w.cfg, counters); gated {
		return sig
	}

	trend := snap.TrendStrength()

	buyConds := []models.ConditionResult{
		{Name: "price_below_lower_band", Met: price < snap.BBLower},
		{Name: "rsi_oversold", Met: snap.RSI < w.cfg.RSIOSold},
		{Name: "ema_short_above_medium", Met: snap.EMAShort > snap.EMAMedium},
		{Name: "trend_up", Met: trend > 0.5},
		{Name: "volume_confirmed", Met: snap.VolumeConfirmed},
	}
	sellConds := []models.ConditionResult{
		{Name: "price_above_upper_band", Met: price > snap.BBUpper},
		{Name: "rsi_overbought", Met: snap.RSI > w.cfg.RSIOverbought},
		{Name: "ema_short_below_medium", Met: snap.EMAShort < snap.EMAMedium},
		{Name: "trend_down", Met: trend < -0.5},
		{Name: "volume_confirmed", Met: snap.VolumeConfirmed},
	}

	buyStrength := strength(buyConds)
	sellStrength := strength(sellConds)
	w.lastBuy, w.lastSell = buyStrength, sellStrength

	buyFires := buyStrength >= w.cfg.MinSignalStrength &&
		rewardRiskOK(snap.BBUpper-price, price-snap.BBLower, w.cfg.RiskRewardRatio)
	sellFires := sellStrength >= w.cfg.MinSignalStrength &&
		rewardRiskOK(price-snap.BBLower, snap.BBUpper-price, w.cfg.RiskRewardRatio)

	switch {
	case buyFires && sellFires:
		// обе стороны сразу — данные противоречивы, сидим в Hold
		ev := append(buyConds, sellConds...)
		ev = append(ev, models.ConditionResult{Name: "consistency_warning", Met: true})
		return models.HoldSignal(ev...)
	case buyFires:
		return models.Signal{Direction: models.Buy, Strength: buyStrength, Evidence: buyConds}
	case sellFires:
		return models.Signal{Direction: models.Sell, Strength: sellStrength, Evidence: sellConds}
	default:
		if buyStrength >= sellStrength {
			return models.Signal{Direction: models.Hold, Strength: buyStrength, Evidence: buyConds}
		}
		return models.Signal{Direction: models.Hold, Strength: sellStrength, Evidence: sellConds}
	}
}

func strength(conds []models.ConditionResult) float64 {
	met := 0
	for _, c := range conds {
		if c.Met {
			met++
		}
	}
	return float64(met) / float64(len(conds))
}

// rewardRiskOK — дистанция до противоположной полосы против дистанции до
// своей. Нулевой или отрицательный риск сигнал не пропускает.
func rewardRiskOK(reward, risk, minRatio float64) bool {
	if risk <= 0 {
		return false
	}
	return reward/risk >= minRatio
}

func (w *Weighted) Dump() string {
	return fmt.Sprintf("weighted: buy=%.2f sell=%.2f", w.lastBuy, w.lastSell)
}
