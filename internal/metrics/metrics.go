// Package metrics wires the engine's Prometheus instrumentation: HTTP
// surface timings for the ops server plus the search-specific gauges and
// histograms that make a generation run observable (best cost per
// iteration, construction/evaluation timing, conflict-check outcomes).
// Adapted from the teacher's MetricsService, trimmed to what this domain
// exercises and extended with the collectors a timetable search needs.
package metrics

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps the Prometheus collectors used across the ops server and
// the generation pipeline.
type Registry struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cacheLatency  prometheus.Histogram
	cacheHitRatio prometheus.Gauge
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter

	dbQueryDuration *prometheus.HistogramVec

	bestCost           *prometheus.GaugeVec
	iterationDuration  *prometheus.HistogramVec
	constructionTiming prometheus.Histogram
	evaluationTiming   prometheus.Histogram
	conflictOutcomes   *prometheus.CounterVec
	generationTotal    *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// New registers every collector against a fresh registry.
func New() *Registry {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	bestCost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "search_best_cost",
		Help: "Best candidate cost seen so far, by algorithm and term",
	}, []string{"algorithm", "term"})

	iterationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "search_iteration_duration_seconds",
		Help:    "Duration of one driver iteration",
		Buckets: prometheus.DefBuckets,
	}, []string{"algorithm"})

	constructionTiming := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "constructor_build_duration_seconds",
		Help:    "Duration of one Constructor.Build call",
		Buckets: prometheus.DefBuckets,
	})

	evaluationTiming := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "evaluator_evaluate_duration_seconds",
		Help:    "Duration of one Evaluate call",
		Buckets: prometheus.DefBuckets,
	})

	conflictOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflict_check_outcomes_total",
		Help: "Conflict checker verdicts by stage and dimension",
	}, []string{"stage", "dimension"})

	generationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_runs_total",
		Help: "Completed generate() runs by term and outcome",
	}, []string{"term", "outcome"})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration, goroutines,
		bestCost, iterationDuration, constructionTiming, evaluationTiming,
		conflictOutcomes, generationTotal,
	)

	return &Registry{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		dbQueryDuration:    dbQueryDuration,
		bestCost:           bestCost,
		iterationDuration:  iterationDuration,
		constructionTiming: constructionTiming,
		evaluationTiming:   evaluationTiming,
		conflictOutcomes:   conflictOutcomes,
		generationTotal:    generationTotal,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// ObserveHTTPRequest records one HTTP request/response cycle.
func (r *Registry) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	r.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	r.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation updates hit/miss counters and the rolling ratio.
func (r *Registry) RecordCacheOperation(hit bool, duration time.Duration) {
	if r == nil {
		return
	}
	r.cacheLatency.Observe(duration.Seconds())
	if hit {
		r.cacheHits.Inc()
		r.cacheHitCount++
	} else {
		r.cacheMisses.Inc()
		r.cacheMissCount++
	}
	total := r.cacheHitCount + r.cacheMissCount
	if total > 0 {
		r.cacheHitRatio.Set(float64(r.cacheHitCount) / float64(total))
	}
}

// ObserveDBQuery records database query timing, labeled by a short query tag.
func (r *Registry) ObserveDBQuery(label string, duration time.Duration) {
	if r == nil {
		return
	}
	r.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// SetBestCost records the current best candidate cost for one algorithm/term pair.
func (r *Registry) SetBestCost(algorithm, term string, cost float64) {
	if r == nil {
		return
	}
	r.bestCost.WithLabelValues(algorithm, term).Set(cost)
}

// ObserveIteration records how long one driver iteration took.
func (r *Registry) ObserveIteration(algorithm string, duration time.Duration) {
	if r == nil {
		return
	}
	r.iterationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// ObserveConstruction records one Constructor.Build call's duration.
func (r *Registry) ObserveConstruction(duration time.Duration) {
	if r == nil {
		return
	}
	r.constructionTiming.Observe(duration.Seconds())
}

// ObserveEvaluation records one Evaluate call's duration.
func (r *Registry) ObserveEvaluation(duration time.Duration) {
	if r == nil {
		return
	}
	r.evaluationTiming.Observe(duration.Seconds())
}

// RecordConflictOutcome tags one conflict-checker descriptor by stage/dimension.
func (r *Registry) RecordConflictOutcome(stage, dimension string) {
	if r == nil {
		return
	}
	r.conflictOutcomes.WithLabelValues(stage, dimension).Inc()
}

// RecordGenerationRun tags one completed generate() call.
func (r *Registry) RecordGenerationRun(term, outcome string) {
	if r == nil {
		return
	}
	r.generationTotal.WithLabelValues(term, outcome).Inc()
}
