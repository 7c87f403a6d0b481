package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "code"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SeatLocksAcquired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_locks_acquired_total",
			Help: "Seat locks successfully acquired.",
		},
	)

	SeatLockConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_lock_conflicts_total",
			Help: "Seat lock attempts rejected because another user holds the seat.",
		},
	)

	BookingsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_confirmed_total",
			Help: "Bookings confirmed successfully.",
		},
	)

	BookingsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_cancelled_total",
			Help: "Bookings cancelled.",
		},
	)

	GroupBookingSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "group_booking_size",
			Help:    "Number of seats per confirmed group booking.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
		},
	)

	FareQuotesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fare_quotes_total",
			Help: "Fare quotes calculated.",
		},
	)
)

// Register installs all collectors on the default registry. Call once at
// startup.
func Register() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SeatLocksAcquired,
		SeatLockConflicts,
		BookingsConfirmed,
		BookingsCancelled,
		GroupBookingSize,
		FareQuotesTotal,
	)
}
