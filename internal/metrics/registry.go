// Package metrics defines the Prometheus registry exposed on /metrics, the
// same HistogramVec/CounterVec/GaugeVec shape and registration pattern the
// teacher's interfaces/http/metrics.go uses, re-keyed to Meridian's own
// ingestion and scoring pipeline instead of a scan pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric Meridian's ingestion, scoring, and scheduler
// components emit.
type Registry struct {
	IngestDuration   *prometheus.HistogramVec
	IngestItems      *prometheus.CounterVec
	IngestErrors     *prometheus.CounterVec
	RateLimitWaits   *prometheus.CounterVec
	CircuitState     *prometheus.GaugeVec
	SignificanceTier *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	JobRuns          *prometheus.CounterVec
	ActiveJobs       prometheus.Gauge
	DBQueryDuration  *prometheus.HistogramVec
}

// NewRegistry builds and registers every Meridian metric against the given
// Prometheus registerer. Passing prometheus.DefaultRegisterer wires into
// promhttp.Handler's default /metrics output.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		IngestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meridian_ingest_duration_seconds",
				Help:    "Duration of a single ingestion provider call",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),
		IngestItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meridian_ingest_items_total",
				Help: "Total items fetched and stored by ingestion source",
			},
			[]string{"source", "result"},
		),
		IngestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meridian_ingest_errors_total",
				Help: "Total ingestion errors by source and error kind",
			},
			[]string{"source", "kind"},
		),
		RateLimitWaits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meridian_rate_limit_waits_total",
				Help: "Total times a provider call waited on its rate limiter",
			},
			[]string{"source"},
		),
		CircuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "meridian_circuit_state",
				Help: "Circuit breaker state by source (0=closed, 1=half-open, 2=open)",
			},
			[]string{"source"},
		),
		SignificanceTier: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meridian_significance_tier_total",
				Help: "Total macro events scored, by resulting tier",
			},
			[]string{"tier"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meridian_scheduler_job_duration_seconds",
				Help:    "Duration of a scheduler job run",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"job"},
		),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meridian_scheduler_job_runs_total",
				Help: "Total scheduler job runs by job name and status",
			},
			[]string{"job", "status"},
		),
		ActiveJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "meridian_scheduler_active_jobs",
				Help: "Number of scheduler jobs currently executing",
			},
		),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meridian_db_query_duration_seconds",
				Help:    "Duration of a repository call",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"repo", "op"},
		),
	}

	reg.MustRegister(
		r.IngestDuration, r.IngestItems, r.IngestErrors, r.RateLimitWaits,
		r.CircuitState, r.SignificanceTier, r.JobDuration, r.JobRuns,
		r.ActiveJobs, r.DBQueryDuration,
	)
	return r
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveIngest records one completed ingestion call.
func (r *Registry) ObserveIngest(source string, start time.Time, itemCount int, err error) {
	r.IngestDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		r.IngestItems.WithLabelValues(source, "error").Inc()
		return
	}
	r.IngestItems.WithLabelValues(source, "ok").Add(float64(itemCount))
}

// ObserveJob records one completed scheduler job run.
func (r *Registry) ObserveJob(job string, start time.Time, status string) {
	r.JobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	r.JobRuns.WithLabelValues(job, status).Inc()
}

// circuitStateValue mirrors gobreaker.State's String() values.
func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// SetCircuitState records a breaker's current state for a source.
func (r *Registry) SetCircuitState(source, state string) {
	r.CircuitState.WithLabelValues(source).Set(circuitStateValue(state))
}

// SetSignificanceTier records count additional events scored into tier
// during one batch pass.
func (r *Registry) SetSignificanceTier(tier string, count int) {
	r.SignificanceTier.WithLabelValues(tier).Add(float64(count))
}
