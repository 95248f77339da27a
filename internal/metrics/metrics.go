package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtbook_bookings_total",
			Help: "Total number of booking submissions",
		},
		[]string{"kind", "status"},
	)

	CancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtbook_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	RefundsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtbook_refunds_issued_total",
			Help: "Total number of refunds paid out",
		},
	)

	EventsAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtbook_events_applied_total",
			Help: "Ledger events folded into the availability index",
		},
	)

	CorruptEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtbook_corrupt_events_total",
			Help: "Ledger events skipped by the projection as corrupt",
		},
	)

	FeedLastSequence = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "courtbook_feed_last_sequence",
			Help: "Highest ledger sequence folded into the index",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtbook_notifications_total",
			Help: "Notifications queued and delivered",
		},
		[]string{"type", "status"},
	)

	NotifyQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "courtbook_notify_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(kind, status string) {
	BookingsTotal.WithLabelValues(kind, status).Inc()
}

func RecordCancellation() {
	CancellationsTotal.Inc()
}

func RecordRefund() {
	RefundsIssuedTotal.Inc()
}

func RecordEventsApplied(applied, corrupt int) {
	EventsAppliedTotal.Add(float64(applied))
	CorruptEventsTotal.Add(float64(corrupt))
}

func RecordNotification(notifType, status string) {
	NotificationsTotal.WithLabelValues(notifType, status).Inc()
}
