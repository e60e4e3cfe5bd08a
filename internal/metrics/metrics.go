package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quickcourt",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quickcourt",
			Name:      "bookings_created_total",
			Help:      "Bookings successfully created.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quickcourt",
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken.",
		},
	)

	paymentsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quickcourt",
			Name:      "payments_confirmed_total",
			Help:      "Payments verified and confirmed.",
		},
	)

	refundsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quickcourt",
			Name:      "refunds_total",
			Help:      "Refunds issued on cancellation.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingConflicts, paymentsConfirmed, refundsIssued)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated()   { bookingsCreated.Inc() }
func IncBookingConflict()  { bookingConflicts.Inc() }
func IncPaymentConfirmed() { paymentsConfirmed.Inc() }
func IncRefund()           { refundsIssued.Inc() }
