package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locentra_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "locentra_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locentra_messages_sent_total",
			Help: "Total messages sent",
		},
		[]string{"kind"}, // "text" or "image"
	)

	ImageUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locentra_image_uploads_total",
			Help: "Total image uploads attempted",
		},
		[]string{"status"}, // "ok" or "error"
	)

	ConversationsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locentra_conversations_deleted_total",
			Help: "Total conversations deleted",
		},
	)

	NotificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locentra_notifications_created_total",
			Help: "Total notification rows created",
		},
	)

	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "locentra_feed_connections",
			Help: "Currently open change feed connections",
		},
	)

	FeedEventsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locentra_feed_events_delivered_total",
			Help: "Change feed events delivered to sockets",
		},
	)
)
