package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intake metrics
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatwise_intake_submissions_total",
			Help: "Total number of registration submissions received",
		},
		[]string{"status"},
	)

	// Admission metrics
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatwise_admission_decisions_total",
			Help: "Total number of admission decisions by outcome",
		},
		[]string{"outcome"},
	)

	StoreConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seatwise_admission_store_conflicts_total",
			Help: "Total number of insert attempts resolved by the uniqueness constraint",
		},
	)

	RedeliveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seatwise_admission_redeliveries_total",
			Help: "Total number of messages negatively acknowledged for redelivery",
		},
	)

	AdmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seatwise_admission_duration_seconds",
			Help:    "Duration of admission processing per message in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Dead-letter metrics
	DeadLettersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatwise_dead_letters_total",
			Help: "Total number of messages moved to the dead-letter stream",
		},
		[]string{"reason"},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatwise_notifications_total",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"channel", "status"},
	)

	NotificationsDeduped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seatwise_notifications_deduped_total",
			Help: "Total number of duplicate decision notifications suppressed",
		},
	)
)
