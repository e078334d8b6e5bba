// Package metrics defines the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector so tests can register them on their own
// registry.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AnalysesTotal       *prometheus.CounterVec
	AnalysisScore       prometheus.Histogram
	AnalysisDuration    prometheus.Histogram
	FetchesTotal        *prometheus.CounterVec
	RobotsTotal         *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visibility_analyses_total",
				Help: "Completed analyses by overall status band.",
			},
			[]string{"status"},
		),
		AnalysisScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "visibility_score",
				Help:    "Distribution of total visibility scores.",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 85, 90, 100},
			},
		),
		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "visibility_analysis_duration_seconds",
				Help:    "Wall time of a full analysis including fetches.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
			},
		),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visibility_page_fetches_total",
				Help: "Page fetch outcomes: ok, ai_blocked, http_error, transport_error.",
			},
			[]string{"outcome"},
		),
		RobotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visibility_robots_fetches_total",
				Help: "Robots document outcomes: found, not_found, unavailable.",
			},
			[]string{"outcome"},
		),
	}
}
