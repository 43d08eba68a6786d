package indicator

import (
	"errors"
	"math"

	"option_bot/internal/models"
)

// ErrInsufficientData — окно короче, чем нужно хотя бы одному индикатору.
// Не фатально: цикл просто пропускает оценку сигнала.
var ErrInsufficientData = errors.New("indicator: insufficient data")

type Config struct {
	BBPeriod int
	BBStd    float64

	RSIPeriod int

	EMAShort  int
	EMAMedium int
	EMALong   int

	StochKPeriod int
	StochDPeriod int
	StochSmooth  int

	// Порог объёмного подтверждения: recent > avg × MinVolumeRate.
	MinVolumeRate float64
}

// MinSamples — минимум сэмплов для полного снапшота.
func (c Config) MinSamples() int {
	n := c.BBPeriod
	if c.RSIPeriod > n {
		n = c.RSIPeriod
	}
	if c.EMALong > n {
		n = c.EMALong
	}
	return n
}

// Compute — чистая функция: окно истории → снапшот.
// Либо полный снапшот, либо ErrInsufficientData; полузаполненных не бывает.
func Compute(ticks []models.Tick, cfg Config) (models.IndicatorSnapshot, error) {
	if len(ticks) < cfg.MinSamples() {
		return models.IndicatorSnapshot{}, ErrInsufficientData
	}

	prices := make([]float64, len(ticks))
	volumes := make([]float64, len(ticks))
	for i, t := range ticks {
		prices[i] = t.Price
		volumes[i] = t.Volume
	}

	middle, upper, lower := Bollinger(prices, cfg.BBPeriod, cfg.BBStd)
	k, d := Stochastic(prices, cfg.StochKPeriod, cfg.StochDPeriod, cfg.StochSmooth)
	ratio, confirmed := VolumeRatio(volumes, cfg.MinVolumeRate)

	return models.IndicatorSnapshot{
		RSI:             RSI(prices, cfg.RSIPeriod),
		EMAShort:        EMA(prices, cfg.EMAShort),
		EMAMedium:       EMA(prices, cfg.EMAMedium),
		EMALong:         EMA(prices, cfg.EMALong),
		BBUpper:         upper,
		BBMiddle:        middle,
		BBLower:         lower,
		StochK:          k,
		StochD:          d,
		VolumeRatio:     ratio,
		VolumeConfirmed: confirmed,
	}, nil
}

// RSI по последним period+1 ценам. Короткое окно → нейтральные 50,
// это осознанный дефолт, а не вычисленное значение. Нулевой средний
// лосс → 100.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}

	window := prices[len(prices)-period-1:]
	var gain, loss float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// EMA — конечное окно с экспоненциальными весами exp(linspace(-1,0,n)),
// нормированными на единицу; последняя цена получает максимальный вес.
// Окно короче периода → последняя цена как есть.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 1 || len(prices) < period {
		return prices[len(prices)-1]
	}

	weights := make([]float64, period)
	var sum float64
	for i := range weights {
		x := -1 + float64(i)/float64(period-1)
		weights[i] = math.Exp(x)
		sum += weights[i]
	}

	window := prices[len(prices)-period:]
	var ema float64
	for i, w := range weights {
		ema += window[i] * w / sum
	}
	return ema
}

// Bollinger — средняя и полосы ±kσ (популяционная σ) по последним period ценам.
func Bollinger(prices []float64, period int, k float64) (middle, upper, lower float64) {
	if period <= 0 || len(prices) < period {
		period = len(prices)
	}
	window := prices[len(prices)-period:]

	var sum float64
	for _, p := range window {
		sum += p
	}
	middle = sum / float64(len(window))

	var variance float64
	for _, p := range window {
		d := p - middle
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(len(window)))

	return middle, middle + k*sigma, middle - k*sigma
}

// Stochastic — %K по окну kPeriod, сглаженный SMA(smooth), %D = SMA(%K, dPeriod).
// Плоский диапазон (high == low) → %K = 50, чтобы не делить на ноль.
func Stochastic(prices []float64, kPeriod, dPeriod, smooth int) (kOut, dOut float64) {
	if kPeriod <= 0 {
		return 50, 50
	}
	if smooth < 1 {
		smooth = 1
	}
	if dPeriod < 1 {
		dPeriod = 1
	}

	// Сколько сырых %K нужно, чтобы хватило на сглаживание и на %D.
	need := dPeriod + smooth - 1
	if len(prices) < kPeriod+need-1 {
		return 50, 50
	}

	raw := make([]float64, need)
	for i := 0; i < need; i++ {
		end := len(prices) - (need - 1 - i)
		window := prices[end-kPeriod : end]
		raw[i] = rawK(window)
	}

	smoothed := make([]float64, dPeriod)
	for i := 0; i < dPeriod; i++ {
		smoothed[i] = mean(raw[i : i+smooth])
	}

	return smoothed[dPeriod-1], mean(smoothed)
}

func rawK(window []float64) float64 {
	lo, hi := window[0], window[0]
	for _, p := range window[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi == lo {
		return 50
	}
	last := window[len(window)-1]
	return 100 * (last - lo) / (hi - lo)
}

// VolumeRatio = mean(5)/mean(20). Меньше 20 сэмплов — "unconfirmed",
// числа не отдаём.
func VolumeRatio(volumes []float64, minRate float64) (ratio float64, confirmed bool) {
	if len(volumes) < 20 {
		return 0, false
	}
	recent := mean(volumes[len(volumes)-5:])
	avg := mean(volumes[len(volumes)-20:])
	if avg == 0 {
		return 0, false
	}
	return recent / avg, recent > avg*minRate
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
