package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the booking pipeline
type Metrics struct {
	BookingsCreated   *prometheus.CounterVec
	BookingsRejected  *prometheus.CounterVec
	BookingsCancelled prometheus.Counter
	RefundAttempts    *prometheus.CounterVec
	GatewayDuration   *prometheus.HistogramVec
	PendingExpired    prometheus.Counter
	OccurrencesSwept  prometheus.Counter
}

// NewMetrics registers the booking metrics on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_created_total",
			Help: "Confirmed bookings by payment method",
		}, []string{"payment_method"}),
		BookingsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_rejected_total",
			Help: "Rejected booking attempts by reason",
		}, []string{"reason"}),
		BookingsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_cancelled_total",
			Help: "Cancelled bookings",
		}),
		RefundAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "refund_attempts_total",
			Help: "Refund attempts by outcome",
		}, []string{"outcome"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_gateway_duration_seconds",
			Help:    "Payment gateway call latency by provider and operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		PendingExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "booking_pending_expired_total",
			Help: "Pending bookings expired by the hold sweeper",
		}),
		OccurrencesSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "occurrence_departed_swept_total",
			Help: "Occurrences marked departed by the sweeper",
		}),
	}
}
