package models

import "time"

// Tick — одно наблюдение цены/объёма. После добавления в историю не меняется.
type Tick struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
}

// Candle — то, что отдаёт венью по истории (getCandles).
type Candle struct {
	OpenTime time.Time
	Close    float64
	Volume   float64
}

func (c Candle) Tick() Tick {
	return Tick{Timestamp: c.OpenTime, Price: c.Close, Volume: c.Volume}
}
