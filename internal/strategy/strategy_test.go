package strategy

import (
	"strings"
	"testing"
	"time"

	"option_bot/internal/indicator"
	"option_bot/internal/models"
)

func testCfg() Config {
	return Config{
		RSIOverbought:     70,
		RSIOSold:          30,
		MinSignalStrength: 0.8,
		RiskRewardRatio:   2.0,
		MaxDailyLoss:      -5.00,
	}
}

// снапшот, по которому weighted заведомо купит
func bullishSnapshot() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		RSI:             25,
		EMAShort:        1.010,
		EMAMedium:       1.005,
		EMALong:         1.000,
		BBUpper:         1.015,
		BBMiddle:        1.000,
		BBLower:         0.985,
		StochK:          15,
		StochD:          18,
		VolumeRatio:     1.4,
		VolumeConfirmed: true,
	}
}

func TestWeightedFiresBuy(t *testing.T) {
	w := NewWeighted(testCfg())
	// цена чуть выше нижней полосы: 4/5 условий + reward:risk = 0.025/0.005
	sig := w.Evaluate(bullishSnapshot(), 0.990, models.PerformanceCounters{})
	if sig.Direction != models.Buy {
		t.Fatalf("direction = %s, want BUY (evidence %+v)", sig.Direction, sig.Evidence)
	}
	if sig.Strength < 0.8 {
		t.Fatalf("strength = %v, want >= 0.8", sig.Strength)
	}
	if dump := w.Dump(); !strings.Contains(dump, "buy=0.80") {
		t.Fatalf("dump must report last strengths: %s", dump)
	}
}

func TestWeightedRewardRiskBlocks(t *testing.T) {
	w := NewWeighted(testCfg())
	// условия те же, но цена в середине канала: reward:risk ≈ 1
	sig := w.Evaluate(bullishSnapshot(), 1.000, models.PerformanceCounters{})
	if sig.Direction != models.Hold {
		t.Fatalf("direction = %s, want HOLD on poor reward:risk", sig.Direction)
	}
}

func TestWeightedStrengthBelowThresholdHolds(t *testing.T) {
	snap := bullishSnapshot()
	snap.VolumeConfirmed = false // 3/5
	w := NewWeighted(testCfg())
	sig := w.Evaluate(snap, 0.990, models.PerformanceCounters{})
	if sig.Direction != models.Hold {
		t.Fatalf("direction = %s, want HOLD at strength %v", sig.Direction, sig.Strength)
	}
}

func TestDailyLossGateOverridesEverything(t *testing.T) {
	counters := models.PerformanceCounters{TotalProfit: -5.00}

	for _, ev := range []Evaluator{NewWeighted(testCfg()), NewSingleRSI(testCfg())} {
		sig := ev.Evaluate(bullishSnapshot(), 0.990, counters)
		if sig.Direction != models.Hold {
			t.Fatalf("%T: direction = %s, want HOLD under daily loss gate", ev, sig.Direction)
		}
		if len(sig.Evidence) == 0 || sig.Evidence[0].Name != "daily_loss_gate" {
			t.Fatalf("%T: gate must be recorded in evidence, got %+v", ev, sig.Evidence)
		}
	}
}

func TestSingleRSICrossingScenario(t *testing.T) {
	// 19 тиков по 1.0000 и обвал до 0.9800 при bbPeriod=20:
	// нижняя полоса пробита, RSI(14) уходит в 0 — single обязан купить.
	ticks := make([]models.Tick, 0, 20)
	for i := 0; i < 19; i++ {
		ticks = append(ticks, models.Tick{Timestamp: time.Unix(int64(i), 0), Price: 1.0000, Volume: 1})
	}
	ticks = append(ticks, models.Tick{Timestamp: time.Unix(19, 0), Price: 0.9800, Volume: 1})

	icfg := indicator.Config{
		BBPeriod: 20, BBStd: 2,
		RSIPeriod: 14,
		EMAShort:  5, EMAMedium: 10, EMALong: 20,
		StochKPeriod: 5, StochDPeriod: 3, StochSmooth: 3,
		MinVolumeRate: 0.5,
	}
	snap, err := indicator.Compute(ticks, icfg)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	price := 0.9800
	if price >= snap.BBLower {
		t.Fatalf("lower band must be breached: price=%v lower=%v", price, snap.BBLower)
	}
	if snap.RSI >= 30 {
		t.Fatalf("RSI = %v, want < 30", snap.RSI)
	}

	s := NewSingleRSI(testCfg())
	sig := s.Evaluate(snap, price, models.PerformanceCounters{})
	if sig.Direction != models.Buy {
		t.Fatalf("direction = %s, want BUY", sig.Direction)
	}
}

func TestSingleRSINoRepeatWhileInZone(t *testing.T) {
	s := NewSingleRSI(testCfg())
	snap := models.IndicatorSnapshot{RSI: 25}

	if sig := s.Evaluate(snap, 1, models.PerformanceCounters{}); sig.Direction != models.Buy {
		t.Fatalf("first entry into zone must signal, got %s", sig.Direction)
	}
	snap.RSI = 22
	if sig := s.Evaluate(snap, 1, models.PerformanceCounters{}); sig.Direction != models.Hold {
		t.Fatalf("staying in zone must not re-signal, got %s", sig.Direction)
	}
	if dump := s.Dump(); !strings.Contains(dump, "prevRSI=22.00") {
		t.Fatalf("dump must report last RSI: %s", dump)
	}
}

func TestFactory(t *testing.T) {
	if _, ok := New("single", testCfg()).(*SingleRSI); !ok {
		t.Fatalf("factory(single) wrong type")
	}
	if _, ok := New("", testCfg()).(*Weighted); !ok {
		t.Fatalf("factory default must be weighted")
	}
}
