package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

func TestAggregateByRegion(t *testing.T) {
	rows := []ScoredEvent{
		{Event: domain.Event{Region: "B", RiskScore: 10, SupplyPressure: 20, MoraleIndex: 30}, Composite: 40},
		{Event: domain.Event{Region: "A", RiskScore: 60, SupplyPressure: 80, MoraleIndex: 100}, Composite: 20},
		{Event: domain.Event{Region: "A", RiskScore: 40, SupplyPressure: 20, MoraleIndex: 0}, Composite: 60},
	}
	aggs := AggregateByRegion(rows)

	require.Len(t, aggs, 2)
	assert.Equal(t, "A", aggs[0].Region, "sorted by region")
	assert.Equal(t, 2, aggs[0].Events)
	assert.InDelta(t, 40, aggs[0].MeanComposite, 1e-9)
	assert.InDelta(t, 50, aggs[0].MeanRisk, 1e-9)
	assert.InDelta(t, 50, aggs[0].MeanSupply, 1e-9)
	assert.InDelta(t, 50, aggs[0].MeanMorale, 1e-9)

	assert.Equal(t, "B", aggs[1].Region)
	assert.Equal(t, 1, aggs[1].Events)

	assert.Empty(t, AggregateByRegion(nil))
}

func TestRecommend_RulePriorities(t *testing.T) {
	aggs := []RegionAggregate{
		{Region: "calm", Events: 5, MeanComposite: 40, MeanRisk: 40, MeanSupply: 60, MeanMorale: 70},
		{Region: "hot", Events: 5, MeanComposite: 85, MeanRisk: 90, MeanSupply: 60, MeanMorale: 70},
		{Region: "starved", Events: 5, MeanComposite: 40, MeanRisk: 40, MeanSupply: 20, MeanMorale: 70},
		{Region: "weary", Events: 5, MeanComposite: 40, MeanRisk: 40, MeanSupply: 60, MeanMorale: 30},
	}
	recs := Recommend(aggs)

	require.Len(t, recs, 4)
	// Fixed priority order, region order within a rule.
	assert.Equal(t, "escalate", recs[0].Action)
	assert.Equal(t, "hot", recs[0].Region)
	assert.Equal(t, "reinforce-monitoring", recs[1].Action)
	assert.Equal(t, "hot", recs[1].Region)
	assert.Equal(t, "dispatch-supplies", recs[2].Action)
	assert.Equal(t, "starved", recs[2].Region)
	assert.Equal(t, "rotate-personnel", recs[3].Action)
	assert.Equal(t, "weary", recs[3].Region)
}

func TestRecommend_CapsAtFive(t *testing.T) {
	var aggs []RegionAggregate
	for _, region := range []string{"a", "b", "c", "d"} {
		aggs = append(aggs, RegionAggregate{
			Region: region, Events: 25,
			MeanComposite: 85, MeanRisk: 90, MeanSupply: 20, MeanMorale: 30,
		})
	}
	recs := Recommend(aggs)

	require.Len(t, recs, 5)
	// Highest-priority rules win the budget: all four escalates, then the
	// first reinforce.
	for i := 0; i < 4; i++ {
		assert.Equal(t, "escalate", recs[i].Action)
		assert.Equal(t, 1, recs[i].Priority)
	}
	assert.Equal(t, "reinforce-monitoring", recs[4].Action)
	assert.Equal(t, "a", recs[4].Region)
}

func TestRecommend_WatchRuleNeedsBusyWindow(t *testing.T) {
	quiet := RegionAggregate{Region: "q", Events: 5, MeanComposite: 70, MeanSupply: 60, MeanMorale: 70}
	busy := RegionAggregate{Region: "b", Events: 20, MeanComposite: 70, MeanSupply: 60, MeanMorale: 70}

	assert.Empty(t, Recommend([]RegionAggregate{quiet}))

	recs := Recommend([]RegionAggregate{busy})
	require.Len(t, recs, 1)
	assert.Equal(t, "watch", recs[0].Action)
}

func TestRecommend_Deterministic(t *testing.T) {
	aggs := []RegionAggregate{
		{Region: "x", Events: 25, MeanComposite: 85, MeanRisk: 90, MeanSupply: 20, MeanMorale: 30},
		{Region: "y", Events: 25, MeanComposite: 85, MeanRisk: 90, MeanSupply: 20, MeanMorale: 30},
	}
	assert.Equal(t, Recommend(aggs), Recommend(aggs))
}
