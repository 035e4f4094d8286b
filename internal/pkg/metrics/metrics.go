// Package metrics exposes prometheus instruments for scheduling runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run modes
const (
	ModePreview = "preview"
	ModeCommit  = "commit"
)

// States recorded for runs that ended without a result
const (
	StateFailed   = "failed"
	StateCanceled = "canceled"
	StateTimedOut = "timed_out"
)

// Metrics holds the scheduler collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	backtracks prometheus.Counter
	unassigned *prometheus.CounterVec
	lockBusy   prometheus.Counter
}

// New registers the scheduler collectors plus the go and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "Scheduling runs by mode and final state, including failed and canceled runs.",
		}, []string{"mode", "state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_run_duration_seconds",
			Help:    "Wall-clock duration of the search, or of the whole attempt when it ended without a result.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"mode"}),
		backtracks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_backtracks_total",
			Help: "Backtracks performed across all runs.",
		}),
		unassigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_unassigned_sections_total",
			Help: "Sections left unscheduled, by reason.",
		}, []string{"reason"}),
		lockBusy: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_lock_contention_total",
			Help: "Runs rejected because the term was locked.",
		}),
	}

	m.registry.MustRegister(
		m.runs, m.duration, m.backtracks, m.unassigned, m.lockBusy,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Run summarizes one finished run
type Run struct {
	Mode       string
	State      string
	Backtracks int
	Duration   time.Duration
	Unassigned map[string]int
}

// ObserveRun records a run. Runs without a result carry only Mode, State and Duration.
func (m *Metrics) ObserveRun(r Run) {
	m.runs.WithLabelValues(r.Mode, r.State).Inc()
	m.duration.WithLabelValues(r.Mode).Observe(r.Duration.Seconds())
	m.backtracks.Add(float64(r.Backtracks))
	for reason, n := range r.Unassigned {
		m.unassigned.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveLockContention counts a run refused by the term lock
func (m *Metrics) ObserveLockContention() {
	m.lockBusy.Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
