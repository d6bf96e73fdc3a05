package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrapped_records_api_requests_total",
			Help: "Requests made to the chess records API by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: "ok", "not_found", "rate_limited", "error", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wrapped_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	ArchiveCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrapped_archive_cache_lookups_total",
			Help: "Monthly archive cache decisions",
		},
		[]string{"status"}, // "hit", "stale", "miss", "error"
	)

	AvatarLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrapped_avatar_lookups_total",
			Help: "Opponent avatar lookups by outcome",
		},
		[]string{"outcome"},
	)

	ReportsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wrapped_reports_generated_total",
			Help: "Year in review reports produced",
		},
	)

	ReportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wrapped_report_duration_seconds",
			Help:    "Time to build one report, including remote fetches",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wrapped_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"}, // route is the matched mux pattern
	)
)
