// Package metrics holds the Prometheus collectors for lead runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
)

// Metrics bundles Prometheus collectors on a dedicated registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry          *prometheus.Registry
	LeadsTotal        *prometheus.CounterVec
	DomainLookups     *prometheus.CounterVec
	DomainLookupTime  prometheus.Histogram
	DomainMemoHits    prometheus.Counter
	SourceErrorsTotal prometheus.Counter
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
}

// New constructs and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	leads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadfinder_leads_total",
			Help: "Records remaining after each pipeline stage.",
		},
		[]string{"stage"},
	)
	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadfinder_domain_lookups_total",
			Help: "External domain lookups by TLD and resulting status.",
		},
		[]string{"tld", "status"},
	)
	lookupTime := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadfinder_domain_lookup_duration_seconds",
			Help:    "Latency of external domain lookups.",
			Buckets: prometheus.DefBuckets,
		},
	)
	memoHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadfinder_domain_memo_hits_total",
			Help: "Domain checks answered from the per-run memo.",
		},
	)
	sourceErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadfinder_source_errors_total",
			Help: "Input sources that failed to load.",
		},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadfinder_runs_total",
			Help: "Pipeline runs by final status.",
		},
		[]string{"status"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadfinder_run_duration_seconds",
			Help:    "Wall time of pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	registry.MustRegister(leads, lookups, lookupTime, memoHits, sourceErrors, runs, runDuration)

	return &Metrics{
		Registry:          registry,
		LeadsTotal:        leads,
		DomainLookups:     lookups,
		DomainLookupTime:  lookupTime,
		DomainMemoHits:    memoHits,
		SourceErrorsTotal: sourceErrors,
		RunsTotal:         runs,
		RunDuration:       runDuration,
	}
}

// AddLeads adds n to the record counter for stage.
func (m *Metrics) AddLeads(stage string, n int) {
	if m == nil {
		return
	}
	m.LeadsTotal.WithLabelValues(stage).Add(float64(n))
}

// ObserveLookup records one external domain lookup.
func (m *Metrics) ObserveLookup(tld, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.DomainLookups.WithLabelValues(tld, status).Inc()
	m.DomainLookupTime.Observe(d.Seconds())
}

// IncMemoHit counts a memoized domain check.
func (m *Metrics) IncMemoHit() {
	if m == nil {
		return
	}
	m.DomainMemoHits.Inc()
}

// IncSourceError counts a failed input source.
func (m *Metrics) IncSourceError() {
	if m == nil {
		return
	}
	m.SourceErrorsTotal.Inc()
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path for the node_exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
