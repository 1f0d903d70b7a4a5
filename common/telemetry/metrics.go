package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine-level collectors, shared by the worker and the API's synchronous
// execute path. Registered on the default registry so promhttp picks them up.
var (
	// ExecutionsTotal counts finished executions by terminal status.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowit_executions_total",
		Help: "Finished workflow executions by status.",
	}, []string{"status"})

	// NodeExecutionsTotal counts node invocations by node type and outcome.
	NodeExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowit_node_executions_total",
		Help: "Node invocations by type and outcome.",
	}, []string{"type", "status"})

	// ExecutionDuration observes wall-clock run duration.
	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowit_execution_duration_seconds",
		Help:    "Workflow execution duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms .. ~80s
	})

	// QueuePending tracks the pending-row count observed on each poll.
	QueuePending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flowit_queue_pending",
		Help: "Pending executions observed by the last worker poll.",
	})

	// ClaimsLost counts claims lost to competing workers.
	ClaimsLost = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowit_claims_lost_total",
		Help: "Execution claims lost to a competing worker.",
	})
)
