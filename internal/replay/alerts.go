package replay

import (
	"time"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

// ScoredEvent is a windowed event with its composite score attached.
type ScoredEvent struct {
	domain.Event
	Composite float64 `json:"composite"`
}

// ScoreWindow computes the composite score for every windowed event. Scores
// are derived fresh on each evaluation and never cached across ticks.
func ScoreWindow(events []domain.Event, w domain.Weights) []ScoredEvent {
	scored := make([]ScoredEvent, len(events))
	for i, e := range events {
		scored[i] = ScoredEvent{Event: e, Composite: domain.Composite(e, w)}
	}
	return scored
}

// Alert flags a windowed event whose scores breached a threshold.
type Alert struct {
	Timestamp time.Time `json:"timestamp"`
	Region    string    `json:"region"`
	Composite float64   `json:"composite"`
	RiskScore float64   `json:"risk_score"`
}

// AlertConfig holds the detection thresholds and the result cap.
type AlertConfig struct {
	CompositeThreshold float64
	RiskThreshold      float64
	Limit              int
}

// DefaultAlertConfig returns the documented defaults: composite > 75 or raw
// risk > 80, at most 5 alerts surfaced.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{CompositeThreshold: 75, RiskThreshold: 80, Limit: 5}
}

// DetectAlerts scans the scored window for threshold breaches and returns at
// most cfg.Limit qualifying events, most recent first. Detection is stateless
// across ticks: a qualifying event reappears on every evaluation while it
// stays in the window. Exactly-once alert semantics are out of scope for this
// demo-grade detector.
func DetectAlerts(rows []ScoredEvent, cfg AlertConfig) []Alert {
	var qualifying []ScoredEvent
	for _, r := range rows {
		if r.Composite > cfg.CompositeThreshold || r.RiskScore > cfg.RiskThreshold {
			qualifying = append(qualifying, r)
		}
	}

	// Rows arrive in canonical ascending order; the tail holds the most
	// recent qualifiers.
	if cfg.Limit > 0 && len(qualifying) > cfg.Limit {
		qualifying = qualifying[len(qualifying)-cfg.Limit:]
	}

	alerts := make([]Alert, 0, len(qualifying))
	for i := len(qualifying) - 1; i >= 0; i-- {
		r := qualifying[i]
		alerts = append(alerts, Alert{
			Timestamp: r.Timestamp,
			Region:    r.Region,
			Composite: r.Composite,
			RiskScore: r.RiskScore,
		})
	}
	return alerts
}
