package runner

import "time"

// TradingHours — фильтр ликвидных часов форекса. Выходные и окно
// ролловера (21:00–01:00 UTC) пропускаем: спреды рвут статистику.
func TradingHours(t time.Time) bool {
	t = t.UTC()
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	if h >= 21 || h < 1 {
		return false
	}
	return true
}
