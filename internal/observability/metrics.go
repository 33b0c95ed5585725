// Package observability exposes Prometheus metrics for the analysis
// pipeline and the HTTP surface.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Total number of flood analysis runs.",
		},
		[]string{"model", "status"},
	)

	analysisStageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_stage_duration_seconds",
			Help:    "Duration of each analysis pipeline stage in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"model", "stage"},
	)

	floodedCells = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_flooded_cells",
			Help:    "Flooded cell count per analysis run.",
			Buckets: prometheus.ExponentialBuckets(16, 4, 10),
		},
		[]string{"model"},
	)

	tileCacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infra_tile_cache_requests_total",
			Help: "Infrastructure tile cache lookups by result.",
		},
		[]string{"result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)
)

func ObserveAnalysis(model, status string) {
	analysisRunsTotal.WithLabelValues(model, status).Inc()
}

func ObserveStage(model, stage string, seconds float64) {
	analysisStageDurationSeconds.WithLabelValues(model, stage).Observe(seconds)
}

func ObserveFloodedCells(model string, n int) {
	floodedCells.WithLabelValues(model).Observe(float64(n))
}

func ObserveTileCache(result string, n int) {
	tileCacheRequestsTotal.WithLabelValues(result).Add(float64(n))
}

func ObserveHTTP(method, route string, status int, seconds float64) {
	s := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, s).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, s).Observe(seconds)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
