package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	NotificationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewdesk_notifications_dispatched_total",
			Help: "Per-recipient notifications persisted by the dispatcher",
		},
		[]string{"type"},
	)

	NotificationsPushed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewdesk_notifications_pushed_total",
			Help: "Notifications delivered over a live websocket session",
		},
	)

	NotificationsQueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewdesk_notifications_queued_total",
			Help: "Notifications queued for offline recipients",
		},
	)

	DeliveryQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewdesk_delivery_queue_depth",
			Help: "Notifications currently waiting for offline recipients",
		},
	)

	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewdesk_emails_sent_total",
			Help: "Emails accepted by the mail transport",
		},
	)

	EmailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewdesk_emails_failed_total",
			Help: "Emails the mail transport rejected",
		},
	)

	ConnectedSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewdesk_ws_sessions",
			Help: "Live websocket sessions",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		NotificationsDispatched,
		NotificationsPushed,
		NotificationsQueued,
		DeliveryQueueDepth,
		EmailsSent,
		EmailsFailed,
		ConnectedSessions,
	)
}
