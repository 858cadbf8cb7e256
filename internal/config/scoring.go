package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
	"github.com/couchcryptid/risk-replay-dashboard/internal/replay"
)

// ScoringConfig is the operator-tunable scoring and alerting configuration,
// loadable from a YAML file. Weights need not sum to one; the composite
// clamp absorbs aggressive tuning.
type ScoringConfig struct {
	Weights domain.Weights `yaml:"weights"`
	Alerts  struct {
		CompositeThreshold float64 `yaml:"composite_threshold"`
		RiskThreshold      float64 `yaml:"risk_threshold"`
		Limit              int     `yaml:"limit"`
	} `yaml:"alerts"`
}

// DefaultScoring returns the built-in weights and alert thresholds.
func DefaultScoring() ScoringConfig {
	var sc ScoringConfig
	sc.Weights = domain.DefaultWeights()
	def := replay.DefaultAlertConfig()
	sc.Alerts.CompositeThreshold = def.CompositeThreshold
	sc.Alerts.RiskThreshold = def.RiskThreshold
	sc.Alerts.Limit = def.Limit
	return sc
}

// AlertConfig converts the alert section to the detector's config type.
func (sc ScoringConfig) AlertConfig() replay.AlertConfig {
	return replay.AlertConfig{
		CompositeThreshold: sc.Alerts.CompositeThreshold,
		RiskThreshold:      sc.Alerts.RiskThreshold,
		Limit:              sc.Alerts.Limit,
	}
}

// LoadScoring reads and validates a YAML scoring file. An empty path returns
// the defaults.
func LoadScoring(path string) (ScoringConfig, error) {
	sc := DefaultScoring()
	if path == "" {
		return sc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("read scoring file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parse scoring file %s: %w", path, err)
	}

	if !sc.Weights.Valid() {
		return sc, fmt.Errorf("scoring file %s: weights must be non-negative", path)
	}
	if sc.Alerts.Limit <= 0 {
		return sc, fmt.Errorf("scoring file %s: alerts.limit must be positive", path)
	}
	return sc, nil
}
