// Package config loads service settings from environment variables and the
// optional YAML scoring file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataFile        string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Replay behavior.
	TickInterval          time.Duration
	AdvanceMinutes        int // wall-clock span revealed per tick
	PreloadMinutes        int // span revealed at startup
	WindowMinutes         int
	Granularity           string // "raw" or "dense"
	NativeIntervalMinutes int    // sampling step of the raw dataset
	DenseIntervalMinutes  int    // target step for the densified timeline

	// Scoring file (optional; overrides built-in weights and thresholds).
	ScoringFile string

	// Alert publishing (optional; enabled when brokers are set).
	KafkaBrokers    []string
	KafkaAlertTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	tickInterval, err := parseDuration("TICK_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}

	advance, err := parsePositiveInt("ADVANCE_MINUTES", 5)
	if err != nil {
		return nil, err
	}
	window, err := parsePositiveInt("WINDOW_MINUTES", 120)
	if err != nil {
		return nil, err
	}
	nativeInterval, err := parsePositiveInt("NATIVE_INTERVAL_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	denseInterval, err := parsePositiveInt("DENSE_INTERVAL_MINUTES", 1)
	if err != nil {
		return nil, err
	}
	preload, err := parseNonNegativeInt("PRELOAD_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataFile:        envOrDefault("DATA_FILE", "data/synthetic_conflict_risk_90d_15min.csv"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TickInterval:          tickInterval,
		AdvanceMinutes:        advance,
		PreloadMinutes:        preload,
		WindowMinutes:         window,
		Granularity:           envOrDefault("GRANULARITY", "raw"),
		NativeIntervalMinutes: nativeInterval,
		DenseIntervalMinutes:  denseInterval,

		ScoringFile: os.Getenv("SCORING_FILE"),

		KafkaBrokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "risk-alerts"),
	}

	if cfg.Granularity != "raw" && cfg.Granularity != "dense" {
		return nil, fmt.Errorf("GRANULARITY must be \"raw\" or \"dense\", got %q", cfg.Granularity)
	}
	if tickInterval < 10*time.Millisecond {
		return nil, errors.New("TICK_INTERVAL must be at least 10ms")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether alert publishing is configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	n, err := parseIntEnv(key, fallback)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, fallback int) (int, error) {
	n, err := parseIntEnv(key, fallback)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
