// Package metrics exposes the process-level Prometheus scrape endpoint
// (spec.md §6's "Prometheus scrape endpoint, if one is wired at the
// process level") and the counters the durable job runtime (C13) and
// webhook dispatcher (C16) update as they run.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsProcessed counts every jobs.Executor.Execute call, labeled by
	// task type and terminal status.
	JobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ventro_jobs_processed_total",
		Help: "Total number of durable job tasks executed, by type and status.",
	}, []string{"type", "status"})

	// JobDuration tracks how long one task's Execute call takes, by type.
	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ventro_job_duration_seconds",
		Help:    "Execution duration of a durable job task, by type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// WebhookDeliveries counts outbound webhook delivery attempts, by
	// event kind and outcome.
	WebhookDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ventro_webhook_deliveries_total",
		Help: "Total number of outbound webhook delivery attempts, by event and outcome.",
	}, []string{"event", "outcome"})
)

func init() {
	prometheus.MustRegister(JobsProcessed, JobDuration, WebhookDeliveries)
}

// Handler serves the Prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
