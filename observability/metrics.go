package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// --- Settlement ---
	SettlementDuration *prometheus.HistogramVec
	SettlementTotal    *prometheus.CounterVec
	CreditsMoved       *prometheus.CounterVec

	// --- Participation ---
	Participations *prometheus.CounterVec

	// --- Notifications ---
	NotificationsDelivered *prometheus.CounterVec
	NotificationFailures   *prometheus.CounterVec

	// --- HTTP ---
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a dedicated registry that also
// carries the Go runtime and process collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		SettlementDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "betpool_settlement_duration_seconds",
			Help:    "Time spent in resolve, revert and delete transactions",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		SettlementTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_settlement_operations_total",
			Help: "Settlement operations by outcome",
		}, []string{"operation", "outcome"}),

		CreditsMoved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_credits_moved_total",
			Help: "Absolute credits moved through the ledger",
		}, []string{"transaction_type"}),

		Participations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_participations_total",
			Help: "Participation attempts by outcome",
		}, []string{"outcome"}),

		NotificationsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_notifications_delivered_total",
			Help: "Notifications handed to a sink",
		}, []string{"sink", "type"}),

		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_notification_failures_total",
			Help: "Notification deliveries that failed",
		}, []string{"sink"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "betpool_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveSettlement records one resolve, revert or delete attempt
func (m *Metrics) ObserveSettlement(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SettlementDuration.WithLabelValues(operation).Observe(d.Seconds())
	m.SettlementTotal.WithLabelValues(operation, outcome).Inc()
}

// AddCreditsMoved adds an absolute credit amount for a transaction type
func (m *Metrics) AddCreditsMoved(transactionType string, amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.CreditsMoved.WithLabelValues(transactionType).Add(float64(amount))
}

func (m *Metrics) IncParticipation(outcome string) {
	if m == nil {
		return
	}
	m.Participations.WithLabelValues(outcome).Inc()
}

// ObserveNotification records a sink delivery
func (m *Metrics) ObserveNotification(sink, notificationType string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.NotificationFailures.WithLabelValues(sink).Inc()
		return
	}
	m.NotificationsDelivered.WithLabelValues(sink, notificationType).Inc()
}

// ObserveHTTP records a served request. route is the matched pattern, not
// the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
