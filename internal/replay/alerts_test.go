package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

func scoredAt(minute int, region string, composite, risk float64) ScoredEvent {
	return ScoredEvent{
		Event: domain.Event{
			Timestamp: windowBase.Add(time.Duration(minute) * time.Minute),
			Region:    region,
			RiskScore: risk,
		},
		Composite: composite,
	}
}

func TestDetectAlerts_ThresholdSemantics(t *testing.T) {
	cfg := DefaultAlertConfig() // composite > 75 OR risk > 80

	rows := []ScoredEvent{
		scoredAt(0, "A", 76, 50), // qualifies on composite
		scoredAt(1, "B", 74, 81), // qualifies on raw risk
		scoredAt(2, "C", 74, 79), // qualifies on neither
		scoredAt(3, "D", 75, 80), // strict inequality: boundary values do not qualify
	}
	alerts := DetectAlerts(rows, cfg)

	require.Len(t, alerts, 2)
	regions := []string{alerts[0].Region, alerts[1].Region}
	assert.ElementsMatch(t, []string{"A", "B"}, regions)
}

func TestDetectAlerts_MostRecentFirstAndLimited(t *testing.T) {
	cfg := AlertConfig{CompositeThreshold: 75, RiskThreshold: 80, Limit: 3}

	var rows []ScoredEvent
	for m := 0; m < 10; m++ {
		rows = append(rows, scoredAt(m, "A", 90, 90))
	}
	alerts := DetectAlerts(rows, cfg)

	require.Len(t, alerts, 3)
	// The three newest qualifiers, newest first.
	assert.Equal(t, windowBase.Add(9*time.Minute), alerts[0].Timestamp)
	assert.Equal(t, windowBase.Add(8*time.Minute), alerts[1].Timestamp)
	assert.Equal(t, windowBase.Add(7*time.Minute), alerts[2].Timestamp)
}

func TestDetectAlerts_StatelessAcrossEvaluations(t *testing.T) {
	// No suppression: the same qualifying window yields the same alerts on
	// every evaluation.
	rows := []ScoredEvent{scoredAt(0, "A", 90, 90)}
	first := DetectAlerts(rows, DefaultAlertConfig())
	second := DetectAlerts(rows, DefaultAlertConfig())
	assert.Equal(t, first, second)
	require.Len(t, second, 1)
}

func TestDetectAlerts_EmptyWindow(t *testing.T) {
	assert.Empty(t, DetectAlerts(nil, DefaultAlertConfig()))
}

func TestScoreWindow(t *testing.T) {
	events := []domain.Event{
		{Region: "A", RiskScore: 50, SupplyPressure: 0, MoraleIndex: 100},
	}
	rows := ScoreWindow(events, domain.DefaultWeights())

	require.Len(t, rows, 1)
	assert.InDelta(t, 0.45*50+25, rows[0].Composite, 1e-9)
	assert.Equal(t, "A", rows[0].Region)

	assert.Empty(t, ScoreWindow(nil, domain.DefaultWeights()))
}
