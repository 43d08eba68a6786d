package strategy

func New(kind string, cfg Config) Evaluator {
	switch kind {
	case "single":
		return NewSingleRSI(cfg)

	case "weighted", "":
		fallthrough
	default:
		return NewWeighted(cfg)
	}
}
