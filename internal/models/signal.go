package models

// Direction как в раннере: HOLD/BUY/SELL.
type Direction string

const (
	Hold Direction = "HOLD"
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// ConditionResult — именованное условие подтверждения и его исход.
// Порядок в Evidence фиксированный, по нему читается "почему".
type ConditionResult struct {
	Name string
	Met  bool
}

// Signal — ответ эвалюатора.
type Signal struct {
	Direction Direction
	// Strength ∈ [0,1] — доля выполненных условий.
	Strength float64
	Evidence []ConditionResult
}

func HoldSignal(evidence ...ConditionResult) Signal {
	return Signal{Direction: Hold, Evidence: evidence}
}
