package strategy

import (
	"fmt"

	"option_bot/internal/models"
)

// SingleRSI — простая политика: пересечение RSI уровней oversold/overbought.
// Именно пересечение, а не уровень: пока RSI сидит в зоне, повторных
// сигналов не будет. Стартуем от нейтральных 50, так что первый же
// снапшот в зоне считается пересечением.
type SingleRSI struct {
	cfg Config

	prevRSI float64
}

func NewSingleRSI(cfg Config) *SingleRSI {
	return &SingleRSI{cfg: cfg, prevRSI: 50}
}

func (s *SingleRSI) Evaluate(snap models.IndicatorSnapshot, price float64, counters models.PerformanceCounters) models.Signal {
	if sig, gated := dailyLossGate(s.cfg, counters); gated {
		return sig
	}

	prev := s.prevRSI
	s.prevRSI = snap.RSI

	crossedDown := prev >= s.cfg.RSIOSold && snap.RSI < s.cfg.RSIOSold
	crossedUp := prev <= s.cfg.RSIOverbought && snap.RSI > s.cfg.RSIOverbought

	evidence := []models.ConditionResult{
		{Name: "rsi_crossed_below_oversold", Met: crossedDown},
		{Name: "rsi_crossed_above_overbought", Met: crossedUp},
	}

	switch {
	case crossedDown && crossedUp:
		// при oversold < overbought оба пересечения разом не случаются
		evidence = append(evidence, models.ConditionResult{Name: "consistency_warning", Met: true})
		return models.HoldSignal(evidence...)
	case crossedDown:
		return models.Signal{Direction: models.Buy, Strength: 1, Evidence: evidence}
	case crossedUp:
		return models.Signal{Direction: models.Sell, Strength: 1, Evidence: evidence}
	default:
		return models.HoldSignal(evidence...)
	}
}

func (s *SingleRSI) Dump() string {
	return fmt.Sprintf("single: prevRSI=%.2f", s.prevRSI)
}
