// Package metrics registers the Prometheus collectors for the onboarding service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_submissions_total",
			Help: "Total number of submissions by outcome",
		},
		[]string{"outcome"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_uploads_total",
			Help: "Total number of attachment uploads by status",
		},
		[]string{"status"},
	)

	DocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_documents_total",
			Help: "Total number of generated documents persisted",
		},
		[]string{"document", "status"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_notifications_total",
			Help: "Total number of approval notifications by status",
		},
		[]string{"status"},
	)

	ApprovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_approvals_total",
			Help: "Total number of approvals by source and status",
		},
		[]string{"source", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
