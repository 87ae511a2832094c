package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uniform_requests_submitted_total",
		Help: "Total number of uniform requests submitted",
	})

	RequestsRejectedAtSubmitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniform_requests_submit_refused_total",
		Help: "Total number of submissions refused, by reason",
	}, []string{"reason"})

	RequestTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniform_request_transitions_total",
		Help: "Total number of request status transitions, by target status",
	}, []string{"status"})

	CatalogItemsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_items_created_total",
		Help: "Total number of catalog items created",
	})

	NotificationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Total number of notifications created, by event kind",
	}, []string{"event"})

	NotificationsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_swept_total",
		Help: "Total number of expired notifications deleted",
	})

	FanOutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notification_fanout_latency_seconds",
		Help:    "Latency of notification fan-out including the retention sweep",
		Buckets: prometheus.DefBuckets,
	})

	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total number of emails handed to the transport, by template",
	}, []string{"template"})

	EmailFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "email_failures_total",
		Help: "Total number of emails that could not be delivered, by template",
	}, []string{"template"})

	MailJobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_jobs_processed_total",
		Help: "Total number of queued mail jobs processed by the mail worker, by result",
	}, []string{"result"})

	EventsPublishFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "domain_events_publish_failed_total",
		Help: "Total number of domain events that could not be published",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
