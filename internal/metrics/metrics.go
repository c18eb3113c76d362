// Package metrics exposes Prometheus counters for the reservation engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtly",
			Name:      "reservations_created_total",
			Help:      "Count of reservations created by status.",
		},
		[]string{"status"},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtly",
			Name:      "slot_conflicts_total",
			Help:      "Count of reservation attempts that lost the slot claim.",
		},
	)

	holdsReleased = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtly",
			Name:      "holds_released_total",
			Help:      "Count of pending holds released by cause.",
		},
		[]string{"cause"},
	)

	paymentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtly",
			Name:      "payment_events_total",
			Help:      "Count of payment webhook events by type and result.",
		},
		[]string{"type", "result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationsCreated, slotConflicts, holdsReleased, paymentEvents)
	})
}

func IncReservationCreated(status string) {
	reservationsCreated.WithLabelValues(status).Inc()
}

func IncSlotConflict() {
	slotConflicts.Inc()
}

func AddHoldsReleased(cause string, n int) {
	holdsReleased.WithLabelValues(cause).Add(float64(n))
}

func IncPaymentEvent(eventType, result string) {
	paymentEvents.WithLabelValues(eventType, result).Inc()
}
