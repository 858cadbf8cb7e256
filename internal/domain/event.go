package domain

import (
	"sort"
	"time"
)

// RequiredColumns lists the fields every source record must carry. Load fails
// with a SchemaError naming the absent columns when any are missing.
var RequiredColumns = []string{
	"timestamp",
	"region",
	"lat",
	"lon",
	"risk_score",
	"activity_index",
	"supply_pressure",
	"morale_index",
}

// Event is one observation of the four raw risk indicators for a region.
// A zero Timestamp marks a row whose source timestamp could not be parsed;
// such rows sort after every dated row and never anchor a window.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Region    string    `json:"region"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`

	RiskScore      float64 `json:"risk_score"`
	ActivityIndex  float64 `json:"activity_index"`
	SupplyPressure float64 `json:"supply_pressure"`
	MoraleIndex    float64 `json:"morale_index"`
}

// HasTimestamp reports whether the event carries a parseable timestamp.
func (e Event) HasTimestamp() bool { return !e.Timestamp.IsZero() }

// Less orders two events by the canonical (timestamp, region) key:
// timestamp ascending, region ascending on ties, null timestamps last.
func Less(a, b Event) bool {
	switch {
	case a.HasTimestamp() && !b.HasTimestamp():
		return true
	case !a.HasTimestamp() && b.HasTimestamp():
		return false
	case !a.HasTimestamp() && !b.HasTimestamp():
		return a.Region < b.Region
	}
	if a.Timestamp.Equal(b.Timestamp) {
		return a.Region < b.Region
	}
	return a.Timestamp.Before(b.Timestamp)
}

// SortEvents sorts events in place by the canonical key. The sort is stable
// so duplicate (timestamp, region) rows keep their input order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool { return Less(events[i], events[j]) })
}

// Regions returns the sorted set of distinct region identifiers.
func Regions(events []Event) []string {
	seen := make(map[string]struct{})
	var regions []string
	for _, e := range events {
		if _, ok := seen[e.Region]; ok {
			continue
		}
		seen[e.Region] = struct{}{}
		regions = append(regions, e.Region)
	}
	sort.Strings(regions)
	return regions
}
