package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus collectors for the momentum pipeline
// ⭐ SSOT: 메트릭 정의는 여기서만
//
// All methods are safe on a nil *Registry, which records nothing.
type Registry struct {
	reg *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	BatchFetches  *prometheus.CounterVec
	BatchLatency  prometheus.Histogram
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	Runs          *prometheus.CounterVec
	MissingQuotes prometheus.Gauge
}

// New creates a Registry backed by its own prometheus.Registry
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hqm_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage", "result"},
		),

		BatchFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hqm_batch_fetches_total",
				Help: "Quote batch fetches by result",
			},
			[]string{"result"},
		),

		BatchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hqm_batch_fetch_seconds",
				Help:    "Latency of a single quote batch fetch",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hqm_cache_hits_total",
				Help: "Cache hits by cache type",
			},
			[]string{"cache_type"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hqm_cache_misses_total",
				Help: "Cache misses by cache type",
			},
			[]string{"cache_type"},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hqm_runs_total",
				Help: "Pipeline runs by strategy and status",
			},
			[]string{"strategy", "status"},
		),

		MissingQuotes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hqm_missing_quotes",
				Help: "Tickers without usable quote data in the last snapshot",
			},
		),
	}

	r.reg.MustRegister(
		r.StageDuration,
		r.BatchFetches,
		r.BatchLatency,
		r.CacheHits,
		r.CacheMisses,
		r.Runs,
		r.MissingQuotes,
	)

	return r
}

// StageTimer tracks execution time for one pipeline stage
type StageTimer struct {
	registry *Registry
	stage    string
	start    time.Time
}

// StartStage begins timing a pipeline stage
func (r *Registry) StartStage(stage string) *StageTimer {
	return &StageTimer{registry: r, stage: stage, start: time.Now()}
}

// Stop records the stage duration under result ("ok" or "error")
func (t *StageTimer) Stop(result string) time.Duration {
	d := time.Since(t.start)
	if t.registry != nil {
		t.registry.StageDuration.WithLabelValues(t.stage, result).Observe(d.Seconds())
	}
	return d
}

// ObserveBatch records one quote batch fetch
func (r *Registry) ObserveBatch(d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.BatchFetches.WithLabelValues(result).Inc()
	r.BatchLatency.Observe(d.Seconds())
}

// RecordCache records a cache lookup
func (r *Registry) RecordCache(cacheType string, hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	r.CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordRun counts a finished run
func (r *Registry) RecordRun(strategy string, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.Runs.WithLabelValues(strategy, status).Inc()
}

// SetMissing publishes the missing ticker count of the last snapshot
func (r *Registry) SetMissing(n int) {
	if r == nil {
		return
	}
	r.MissingQuotes.Set(float64(n))
}

// Gatherer exposes the underlying registry for tests and exporters
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler serving the registry in Prometheus format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
