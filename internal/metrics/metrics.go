package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created by initial status.",
		},
		[]string{"status"},
	)

	reservationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "reservation_rejected_total",
			Help:      "Count of rejected engine operations by operation and failure kind.",
		},
		[]string{"operation", "kind"},
	)

	statusTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "status_transition_total",
			Help:      "Count of applied status transitions.",
		},
		[]string{"from", "to"},
	)

	reservationDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "reservation_deleted_total",
			Help:      "Count of reservations deleted before start.",
		},
	)

	sweepCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "sweep_completed_total",
			Help:      "Count of reservations auto-completed by the sweeper.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "court_cache_lookups_total",
			Help:      "Court catalogue cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationCreated,
			reservationRejected,
			statusTransition,
			reservationDeleted,
			sweepCompleted,
			cacheLookups,
		)
	})
}

func IncReservationCreated(status string) {
	reservationCreated.WithLabelValues(status).Inc()
}

func IncRejected(operation, kind string) {
	reservationRejected.WithLabelValues(operation, kind).Inc()
}

func IncTransition(from, to string) {
	statusTransition.WithLabelValues(from, to).Inc()
}

func IncDeleted() {
	reservationDeleted.Inc()
}

func AddSweepCompleted(n int64) {
	sweepCompleted.Add(float64(n))
}

func IncCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}
