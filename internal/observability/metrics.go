package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// replay engine.
type Metrics struct {
	EventsLoaded    prometheus.Gauge
	ParseFallbacks  prometheus.Counter // rows degraded to a null timestamp
	TicksTotal      prometheus.Counter
	CursorPosition  prometheus.Gauge
	TimelineLength  prometheus.Gauge
	ReplayRunning   prometheus.Gauge
	WindowEvents    prometheus.Gauge
	ActiveAlerts    prometheus.Gauge
	InjectionsTotal prometheus.Counter
	AppendsTotal    prometheus.Counter
	PublishErrors   prometheus.Counter

	EvaluationDuration prometheus.Histogram
}

// NewMetrics creates and registers all replay metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.EventsLoaded,
		m.ParseFallbacks,
		m.TicksTotal,
		m.CursorPosition,
		m.TimelineLength,
		m.ReplayRunning,
		m.WindowEvents,
		m.ActiveAlerts,
		m.InjectionsTotal,
		m.AppendsTotal,
		m.PublishErrors,
		m.EvaluationDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EventsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_replay",
			Name:      "events_loaded",
			Help:      "Events loaded into the active timeline.",
		}),
		ParseFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_replay",
			Name:      "timestamp_parse_fallbacks_total",
			Help:      "Source rows whose timestamp degraded to null during load.",
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_replay",
			Name:      "ticks_total",
			Help:      "Scheduler ticks processed.",
		}),
		CursorPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_replay",
			Name:      "cursor_position",
			Help:      "Number of revealed events.",
		}),
		TimelineLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_replay",
			Name:      "timeline_length",
			Help:      "Total events in the active timeline.",
		}),
		ReplayRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_replay",
			Name:      "running",
			Help:      "1 while the replay cursor is advancing, 0 otherwise.",
		}),
		WindowEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_replay",
			Name:      "window_events",
			Help:      "Events inside the current trailing window.",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_replay",
			Name:      "active_alerts",
			Help:      "Alerts surfaced by the latest evaluation.",
		}),
		InjectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_replay",
			Name:      "injections_total",
			Help:      "Accepted mutation injections.",
		}),
		AppendsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_replay",
			Name:      "appends_total",
			Help:      "Accepted append batches merged into the revealed prefix.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_replay",
			Name:      "snapshot_publish_errors_total",
			Help:      "Failed snapshot deliveries to downstream sinks.",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk_replay",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a window-score-alert evaluation cycle.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
