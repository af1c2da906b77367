package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tix_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tix_bookings_created_total",
			Help: "Total bookings reserved",
		},
	)

	BookingsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tix_bookings_confirmed_total",
			Help: "Total bookings confirmed after payment",
		},
	)

	BookingsReleased = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tix_bookings_released_total",
			Help: "Total bookings cancelled, refunded or expired",
		},
		[]string{"reason"},
	)

	InventoryRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tix_inventory_rejections_total",
			Help: "Total reservations rejected for insufficient inventory",
		},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tix_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tix_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox record",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tix_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
