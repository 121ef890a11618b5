package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequests counts inbound requests by method, route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// BackendRequests counts calls to the forecasting API by endpoint and
	// outcome ("ok", "status", "transport", "decode").
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_backend_requests_total",
			Help: "Total number of calls made to the forecasting API.",
		},
		[]string{"endpoint", "outcome"},
	)

	// Model fits can take tens of seconds, hence the wide buckets.
	BackendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_backend_request_duration_seconds",
			Help:    "Duration of calls to the forecasting API in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	// WorkflowOperations counts Run/Rerun by outcome ("ok", "failed", "superseded").
	WorkflowOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_operations_total",
			Help: "Total number of composite workflow operations.",
		},
		[]string{"operation", "outcome"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "workflow_sessions_active",
			Help: "Number of live workflow sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests, HTTPDuration, HTTPInflight,
		BackendRequests, BackendDuration,
		WorkflowOperations, ActiveSessions,
	)
}
