package domain

// Weights control the contribution of each derived term to the composite
// score. They are operator-tunable and deliberately not renormalized: the
// final clamp absorbs configurations whose pre-clip sum leaves [0,100].
type Weights struct {
	Risk           float64 `json:"risk" yaml:"risk"`
	Infrastructure float64 `json:"infrastructure" yaml:"infrastructure"`
	SupplyRelief   float64 `json:"supply_relief" yaml:"supply_relief"`
	Environment    float64 `json:"environment" yaml:"environment"`
}

// DefaultWeights returns the standard weight vector.
func DefaultWeights() Weights {
	return Weights{
		Risk:           0.45,
		Infrastructure: 0.25,
		SupplyRelief:   0.20,
		Environment:    0.10,
	}
}

// Valid reports whether all weights are non-negative.
func (w Weights) Valid() bool {
	return w.Risk >= 0 && w.Infrastructure >= 0 && w.SupplyRelief >= 0 && w.Environment >= 0
}

// Composite combines the four raw indicators into a single risk scalar in
// [0,100]. The derived terms:
//
//	infrastructure stress = 100 - 0.6*supply_pressure
//	supply relief         = supply_pressure
//	environmental risk    = clip(100 - morale_index, 0, 100)
//
// The function is pure and recomputed on every window evaluation so weight
// changes apply immediately, even while replay is paused.
func Composite(e Event, w Weights) float64 {
	infra := 100 - 0.6*e.SupplyPressure
	env := Clamp(100-e.MoraleIndex, 0, 100)
	c := w.Risk*e.RiskScore + w.Infrastructure*infra + w.SupplyRelief*e.SupplyPressure + w.Environment*env
	return Clamp(c, 0, 100)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
