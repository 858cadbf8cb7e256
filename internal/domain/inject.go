package domain

import "time"

// Injection is a localized, time-bounded perturbation of one region's
// indicators, simulating an exogenous disruption. Start is anchored to the
// replay's current "now" (latest revealed timestamp) by the caller.
type Injection struct {
	ID        string        `json:"id"`
	Region    string        `json:"region"`
	Start     time.Time     `json:"start"`
	Duration  time.Duration `json:"duration"`
	Magnitude float64       `json:"magnitude"`
}

// Matches reports whether the event falls inside the injection's region and
// [Start, Start+Duration] interval. The interval is closed on both ends.
func (inj Injection) Matches(e Event) bool {
	if e.Region != inj.Region || !e.HasTimestamp() {
		return false
	}
	end := inj.Start.Add(inj.Duration)
	return !e.Timestamp.Before(inj.Start) && !e.Timestamp.After(end)
}

// Apply mutates every matching event in place and returns the number of rows
// touched. The coupled deltas encode a simple causal model: a risk spike
// degrades supply and morale.
//
//	risk_score      += magnitude         (clamped 0-100)
//	supply_pressure -= 0.4 * magnitude   (clamped 0-100)
//	morale_index    -= 0.2 * magnitude   (clamped 0-100)
func (inj Injection) Apply(events []Event) int {
	touched := 0
	for i := range events {
		if !inj.Matches(events[i]) {
			continue
		}
		events[i].RiskScore = Clamp(events[i].RiskScore+inj.Magnitude, 0, 100)
		events[i].SupplyPressure = Clamp(events[i].SupplyPressure-0.4*inj.Magnitude, 0, 100)
		events[i].MoraleIndex = Clamp(events[i].MoraleIndex-0.2*inj.Magnitude, 0, 100)
		touched++
	}
	return touched
}
