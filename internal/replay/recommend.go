package replay

import "sort"

// RegionAggregate summarizes one region's windowed rows.
type RegionAggregate struct {
	Region        string  `json:"region"`
	Events        int     `json:"events"`
	MeanComposite float64 `json:"mean_composite"`
	MeanRisk      float64 `json:"mean_risk"`
	MeanSupply    float64 `json:"mean_supply"`
	MeanMorale    float64 `json:"mean_morale"`
}

// Recommendation is a per-region action hint derived from window aggregates.
// These are simple threshold heuristics for the analyst view, not operational
// decision support.
type Recommendation struct {
	Priority      int     `json:"priority"`
	Region        string  `json:"region"`
	Action        string  `json:"action"`
	Reason        string  `json:"reason"`
	MeanComposite float64 `json:"mean_composite"`
	Events        int     `json:"events"`
}

// maxRecommendations caps the surfaced list; lower-priority hints are dropped
// first.
const maxRecommendations = 5

// AggregateByRegion computes per-region window aggregates, sorted by region
// so downstream output is deterministic.
func AggregateByRegion(rows []ScoredEvent) []RegionAggregate {
	byRegion := make(map[string]*RegionAggregate)
	for _, r := range rows {
		agg, ok := byRegion[r.Region]
		if !ok {
			agg = &RegionAggregate{Region: r.Region}
			byRegion[r.Region] = agg
		}
		agg.Events++
		agg.MeanComposite += r.Composite
		agg.MeanRisk += r.RiskScore
		agg.MeanSupply += r.SupplyPressure
		agg.MeanMorale += r.MoraleIndex
	}

	aggs := make([]RegionAggregate, 0, len(byRegion))
	for _, agg := range byRegion {
		n := float64(agg.Events)
		agg.MeanComposite /= n
		agg.MeanRisk /= n
		agg.MeanSupply /= n
		agg.MeanMorale /= n
		aggs = append(aggs, *agg)
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Region < aggs[j].Region })
	return aggs
}

// recommendationRule emits a recommendation when a region's aggregates cross
// its threshold. Rules are evaluated in fixed priority order.
type recommendationRule struct {
	priority int
	action   string
	reason   string
	matches  func(RegionAggregate) bool
}

var recommendationRules = []recommendationRule{
	{1, "escalate", "sustained composite risk above 80", func(a RegionAggregate) bool {
		return a.MeanComposite > 80
	}},
	{2, "reinforce-monitoring", "mean raw risk above 85", func(a RegionAggregate) bool {
		return a.MeanRisk > 85
	}},
	{3, "dispatch-supplies", "mean supply pressure below 30", func(a RegionAggregate) bool {
		return a.MeanSupply < 30
	}},
	{4, "rotate-personnel", "mean morale below 35", func(a RegionAggregate) bool {
		return a.MeanMorale < 35
	}},
	{5, "watch", "elevated composite over a busy window", func(a RegionAggregate) bool {
		return a.Events >= 20 && a.MeanComposite > 60
	}},
}

// Recommend applies the fixed rule set to the region aggregates and returns
// at most maxRecommendations hints, ordered by (priority, region). Like
// alerts, recommendations are recomputed fresh each evaluation with no
// cross-tick de-duplication.
func Recommend(aggs []RegionAggregate) []Recommendation {
	var recs []Recommendation
	for _, rule := range recommendationRules {
		for _, agg := range aggs {
			if !rule.matches(agg) {
				continue
			}
			recs = append(recs, Recommendation{
				Priority:      rule.priority,
				Region:        agg.Region,
				Action:        rule.action,
				Reason:        rule.reason,
				MeanComposite: agg.MeanComposite,
				Events:        agg.Events,
			})
		}
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
