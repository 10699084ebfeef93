package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/toolforge/toolforge/pkg/engine"
)

// Metrics provides Prometheus counters for run outcomes. toolforge is a
// one-shot process, so the registry is gathered at the end of the run for
// the report rather than scraped over HTTP.
type Metrics struct {
	config MetricsConfig

	componentsTotal *prometheus.CounterVec
	attemptsTotal   *prometheus.CounterVec
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with the given configuration.
// When disabled, every observation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		componentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "components_total",
				Help:      "Components handled, by final status",
			},
			[]string{"status"},
		),
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "method_attempts_total",
				Help:      "Installation method attempts, by method name",
			},
			[]string{"method"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Runs executed, by terminal status",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock run duration in seconds",
				Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
			},
		),
	}

	registry.MustRegister(m.componentsTotal, m.attemptsTotal, m.runsTotal, m.runDuration)
	return m
}

// ObserveResult records one component's final outcome.
func (m *Metrics) ObserveResult(result engine.ComponentResult) {
	if m.registry == nil {
		return
	}
	m.componentsTotal.WithLabelValues(string(result.Status)).Inc()
	for _, attempt := range result.Attempts {
		m.attemptsTotal.WithLabelValues(attempt.Method).Inc()
	}
}

// ObserveRun records the run's terminal status and duration.
func (m *Metrics) ObserveRun(status engine.RunStatus, seconds float64) {
	if m.registry == nil {
		return
	}
	m.runsTotal.WithLabelValues(string(status)).Inc()
	m.runDuration.Observe(seconds)
}

// Gather returns the collected metric families for inclusion in the report.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	if m.registry == nil {
		return nil, nil
	}
	return m.registry.Gather()
}
