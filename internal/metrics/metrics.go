package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	GymsRegisteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymhub_gyms_registered_total",
			Help: "Total number of gym registrations",
		},
	)

	GymActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_gym_activations_total",
			Help: "Total number of gym activations",
		},
		[]string{"trigger"},
	)

	InvoicesPaidTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_invoices_paid_total",
			Help: "Total number of invoices marked paid",
		},
		[]string{"purpose", "payment_method"},
	)

	MembersEnrolledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymhub_members_enrolled_total",
			Help: "Total number of members enrolled",
		},
	)

	AttendanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_attendance_total",
			Help: "Total number of check-ins",
		},
		[]string{"kind", "method"},
	)

	QRScanRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_qr_scan_rejections_total",
			Help: "Total number of rejected QR scans",
		},
		[]string{"reason"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_notifications_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymhub_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymhub_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymhub_websocket_connections",
			Help: "Open notification WebSocket connections",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordGymRegistered() {
	GymsRegisteredTotal.Inc()
}

func RecordGymActivation(trigger string) {
	GymActivationsTotal.WithLabelValues(trigger).Inc()
}

func RecordInvoicePaid(purpose, paymentMethod string) {
	InvoicesPaidTotal.WithLabelValues(purpose, paymentMethod).Inc()
}

func RecordMemberEnrolled() {
	MembersEnrolledTotal.Inc()
}

func RecordAttendance(kind, method string) {
	AttendanceTotal.WithLabelValues(kind, method).Inc()
}

func RecordQRScanRejection(reason string) {
	QRScanRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordNotification(notificationType string) {
	NotificationsTotal.WithLabelValues(notificationType).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
