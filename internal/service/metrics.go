package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailing_scheduler_job_runs_total",
			Help: "Scheduler job executions partitioned by job and result",
		},
		[]string{"job", "result"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailing_scheduler_job_duration_seconds",
			Help:    "Scheduler job latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	messageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailing_message_transitions_total",
			Help: "Message status transitions partitioned by resulting status",
		},
		[]string{"status"},
	)

	campaignTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailing_campaign_transitions_total",
			Help: "Campaign status transitions partitioned by resulting status",
		},
		[]string{"status"},
	)

	itemErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailing_item_errors_total",
			Help: "Per item processing errors partitioned by operation",
		},
		[]string{"operation"},
	)

	// Attempts currently holding a message lock
	inFlightAttempts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mailing_inflight_send_attempts",
			Help: "Number of message send attempts currently running",
		},
	)
)
