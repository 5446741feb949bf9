// Package observability exposes the Prometheus instruments published on
// /metrics.  Counters are registered through promauto at package init, so
// importing this package is enough to make them visible.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationsCreated counts successfully committed reservations.
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voyage_reservations_created_total",
		Help: "Total number of reservations created",
	})

	// CapacityConflicts counts booking attempts rejected because the
	// destination did not have enough seats left.
	CapacityConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voyage_capacity_conflicts_total",
		Help: "Total number of bookings rejected for insufficient seats",
	})

	// EventsPublished counts reservation events handed to the broker,
	// labeled by event type.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyage_events_published_total",
		Help: "Total number of reservation events published",
	}, []string{"type"})

	// RateLimitExceeded counts requests rejected by the rate limiter.
	RateLimitExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voyage_rate_limit_exceeded_total",
		Help: "Total number of rate limited requests",
	})
)
