package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	holdCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Name:      "hold_created_total",
			Help:      "Count of holds successfully created.",
		},
	)

	holdRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Name:      "hold_rejected_total",
			Help:      "Count of hold creations rejected by reason.",
		},
		[]string{"reason"},
	)

	holdReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Name:      "hold_released_total",
			Help:      "Count of holds released explicitly.",
		},
	)

	bookingConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Name:      "booking_confirmed_total",
			Help:      "Count of holds converted into bookings.",
		},
	)

	confirmRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Name:      "confirm_rejected_total",
			Help:      "Count of confirmations rejected by reason.",
		},
		[]string{"reason"},
	)

	holdsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Name:      "holds_swept_total",
			Help:      "Count of expired holds evicted by the sweeper.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcana",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			holdCreated, holdRejected, holdReleased,
			bookingConfirmed, confirmRejected, holdsSwept, httpRequests,
		)
	})
}

func IncHoldCreated() {
	holdCreated.Inc()
}

func IncHoldRejected(reason string) {
	holdRejected.WithLabelValues(reason).Inc()
}

func IncHoldReleased() {
	holdReleased.Inc()
}

func IncBookingConfirmed() {
	bookingConfirmed.Inc()
}

func IncConfirmRejected(reason string) {
	confirmRejected.WithLabelValues(reason).Inc()
}

func AddHoldsSwept(n int64) {
	holdsSwept.Add(float64(n))
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
