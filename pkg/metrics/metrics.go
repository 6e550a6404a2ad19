package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsPurged counts rows removed by retention jobs, labelled by entity class.
	RowsPurged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentmesh_lifecycle_rows_purged_total",
			Help: "Total rows removed by scheduled retention jobs",
		},
		[]string{"entity"},
	)

	// AgentsAnonymized counts dormant agents scrubbed by the anonymization job.
	AgentsAnonymized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentmesh_lifecycle_agents_anonymized_total",
			Help: "Total agents anonymized after the inactivity window",
		},
	)

	// DeletionRequestsProcessed counts account deletion requests by outcome
	// (completed|retried).
	DeletionRequestsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentmesh_lifecycle_deletion_requests_total",
			Help: "Account deletion requests handled by the scheduled processor",
		},
		[]string{"outcome"},
	)

	// JobFailures counts maintenance job invocations that returned an error.
	JobFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentmesh_lifecycle_job_failures_total",
			Help: "Scheduled lifecycle job failures",
		},
		[]string{"job"},
	)

	// APILatency observes HTTP request durations by method, route and status.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentmesh_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
