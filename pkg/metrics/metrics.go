package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	JobsEnqueuedTotal   prometheus.Counter
	JobsProcessedTotal  *prometheus.CounterVec
	ScrapeDuration      *prometheus.HistogramVec
	JobsInQueue         prometheus.Gauge
	DeadLetterTotal     prometheus.Counter
)

func Init() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	JobsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrape_jobs_enqueued_total",
			Help: "Total number of scrape jobs placed on the queue.",
		},
	)

	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_jobs_processed_total",
			Help: "Total number of scrape job attempts by outcome.",
		},
		[]string{"outcome"}, // done, skipped, failed, retried
	)

	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Duration of fetch-and-reconcile executions.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
		},
		[]string{"kind"},
	)

	JobsInQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrape_jobs_in_queue",
			Help: "Current number of messages on the ready queue.",
		},
	)

	DeadLetterTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrape_dead_letter_total",
			Help: "Total number of messages buried after exhausting retries.",
		},
	)
}
