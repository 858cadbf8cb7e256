package store

import (
	"time"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

// Densify upsamples a raw store onto a fixed per-region time grid of
// intervalMinutes steps, producing the dense timeline.
//
// Per region: the grid runs from the region's first known timestamp to its
// last, the four indicators are time-weighted linearly interpolated between
// the bracketing samples, and coordinates are filled from the last known
// sample. There is no extrapolation outside a region's [first, last] range;
// the exact final sample is appended when the grid step does not land on it,
// so every region's boundary values survive unchanged. Regions never share
// samples, a single-sample region degenerates to a constant single row, and
// rows without a parseable timestamp are excluded (they have no place on a
// time axis).
//
// Densifying an already intervalMinutes-spaced series reproduces it exactly.
func Densify(s *Store, intervalMinutes int) *Store {
	step := time.Duration(intervalMinutes) * time.Minute

	var out []domain.Event
	for _, region := range s.Regions() {
		samples := regionSamples(s.events, region)
		if len(samples) == 0 {
			continue
		}
		out = append(out, resampleRegion(samples, step)...)
	}

	return New(out, GranularityDense, intervalMinutes)
}

// regionSamples collects one region's dated rows in timestamp order,
// keeping only the first row of any duplicate timestamp.
func regionSamples(events []domain.Event, region string) []domain.Event {
	var samples []domain.Event
	for _, e := range events {
		if e.Region != region || !e.HasTimestamp() {
			continue
		}
		if n := len(samples); n > 0 && samples[n-1].Timestamp.Equal(e.Timestamp) {
			continue
		}
		samples = append(samples, e)
	}
	return samples
}

func resampleRegion(samples []domain.Event, step time.Duration) []domain.Event {
	first := samples[0].Timestamp
	last := samples[len(samples)-1].Timestamp

	var rows []domain.Event
	i := 0
	for t := first; !t.After(last); t = t.Add(step) {
		for i+1 < len(samples) && !samples[i+1].Timestamp.After(t) {
			i++
		}
		rows = append(rows, sampleAt(samples, i, t))
	}

	// The grid missed the region's final sample; keep it exactly.
	if !rows[len(rows)-1].Timestamp.Equal(last) {
		rows = append(rows, samples[len(samples)-1])
	}
	return rows
}

// sampleAt produces the grid row at time t, where samples[i] is the latest
// sample at or before t. Coordinates forward-fill from that sample; the four
// indicators interpolate linearly toward the next one when t falls between.
func sampleAt(samples []domain.Event, i int, t time.Time) domain.Event {
	a := samples[i]
	row := a
	row.Timestamp = t

	if t.Equal(a.Timestamp) || i+1 >= len(samples) {
		return row
	}

	b := samples[i+1]
	frac := float64(t.Sub(a.Timestamp)) / float64(b.Timestamp.Sub(a.Timestamp))
	row.RiskScore = lerp(a.RiskScore, b.RiskScore, frac)
	row.ActivityIndex = lerp(a.ActivityIndex, b.ActivityIndex, frac)
	row.SupplyPressure = lerp(a.SupplyPressure, b.SupplyPressure, frac)
	row.MoraleIndex = lerp(a.MoraleIndex, b.MoraleIndex, frac)
	return row
}

func lerp(a, b, frac float64) float64 {
	return a + frac*(b-a)
}
