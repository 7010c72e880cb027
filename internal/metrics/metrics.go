// Package metrics holds the run counters. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "insider_ingest"

// Unit outcomes.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeFetched  = "fetched"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry      *prometheus.Registry
	units         *prometheus.CounterVec
	fetchAttempts prometheus.Counter
	fetchFailures prometheus.Counter
	accepted      prometheus.Counter
	rejected      prometheus.Counter
	records       prometheus.Gauge
	duration      prometheus.Gauge
	lastRun       prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		units: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Work units reaching a terminal state, by outcome.",
		}, []string{"outcome"}),
		fetchAttempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "HTTP attempts made against the screener.",
		}),
		fetchFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed HTTP attempts against the screener.",
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_accepted_total",
			Help:      "Parsed rows that passed the filters.",
		}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Parsed rows rejected by the filters.",
		}),
		records: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_records",
			Help:      "Records in the last aggregate.",
		}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) UnitDone(outcome string) {
	if m == nil {
		return
	}
	m.units.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FetchAttempt(err error) {
	if m == nil {
		return
	}
	m.fetchAttempts.Inc()
	if err != nil {
		m.fetchFailures.Inc()
	}
}

func (m *Metrics) RecordsFiltered(accepted, rejected int) {
	if m == nil {
		return
	}
	m.accepted.Add(float64(accepted))
	m.rejected.Add(float64(rejected))
}

func (m *Metrics) RunFinished(d time.Duration, records int) {
	if m == nil {
		return
	}
	m.duration.Set(d.Seconds())
	m.records.Set(float64(records))
	m.lastRun.SetToCurrentTime()
}

// WriteTextfile writes the registry in exposition format for the node
// exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
