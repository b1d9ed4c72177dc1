package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion service.
type Metrics struct {
	FetchRequests  *prometheus.CounterVec // labels: provider, outcome={success,error}
	RecordsFetched *prometheus.CounterVec // labels: provider
	UpsertOutcomes *prometheus.CounterVec // labels: provider, outcome={inserted,updated,skipped}
	UpsertErrors   *prometheus.CounterVec // labels: provider

	CycleDuration *prometheus.HistogramVec // labels: provider
	LastSuccess   *prometheus.GaugeVec     // labels: provider; unix seconds
	RunnerRunning prometheus.Gauge
}

// NewMetrics creates and registers all ingestion metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "fetch_requests_total",
			Help:      "Upstream feed fetches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "records_fetched_total",
			Help:      "Normalized incidents returned by provider fetches.",
		}, []string{"provider"}),
		UpsertOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "upsert_outcomes_total",
			Help:      "Per-record upsert outcomes by provider.",
		}, []string{"provider", "outcome"}),
		UpsertErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "upsert_errors_total",
			Help:      "Store failures during upsert by provider.",
		}, []string{"provider"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "incident_etl",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-upsert cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "incident_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful cycle per provider.",
		}, []string{"provider"}),
		RunnerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "incident_etl",
			Name:      "runner_running",
			Help:      "1 when the periodic runner is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.FetchRequests,
		m.RecordsFetched,
		m.UpsertOutcomes,
		m.UpsertErrors,
		m.CycleDuration,
		m.LastSuccess,
		m.RunnerRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "incident_etl", Name: "fetch_requests_total"}, []string{"provider", "outcome"}),
		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "incident_etl", Name: "records_fetched_total"}, []string{"provider"}),
		UpsertOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "incident_etl", Name: "upsert_outcomes_total"}, []string{"provider", "outcome"}),
		UpsertErrors:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "incident_etl", Name: "upsert_errors_total"}, []string{"provider"}),
		CycleDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "incident_etl", Name: "cycle_duration_seconds"}, []string{"provider"}),
		LastSuccess:    prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "incident_etl", Name: "last_success_timestamp_seconds"}, []string{"provider"}),
		RunnerRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "incident_etl", Name: "runner_running"}),
	}
}
