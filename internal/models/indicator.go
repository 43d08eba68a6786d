package models

// IndicatorSnapshot — свежий срез по текущему окну истории.
// Поля либо честно посчитаны, либо несут документированный нейтральный
// дефолт (RSI=50 на коротком окне, StochK=50 на плоском диапазоне).
type IndicatorSnapshot struct {
	RSI float64

	EMAShort  float64
	EMAMedium float64
	EMALong   float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	StochK float64
	StochD float64

	// VolumeRatio = mean(5)/mean(20). При <20 сэмплах ratio не считаем:
	// VolumeConfirmed=false, VolumeRatio=0 ("unconfirmed").
	VolumeRatio     float64
	VolumeConfirmed bool
}

// TrendStrength — (emaShort − emaLong)/emaLong · 100.
func (s IndicatorSnapshot) TrendStrength() float64 {
	if s.EMALong == 0 {
		return 0
	}
	return (s.EMAShort - s.EMALong) / s.EMALong * 100
}
