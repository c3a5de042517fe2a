// Package metrics provides Prometheus metrics for markd.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "markd"

var (
	// StoreOps counts record store operations.
	StoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of record store operations",
		},
		[]string{"op", "status"},
	)

	// StoreDuration measures record store latency.
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of record store operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// FeedPublished counts change feed publishes.
	FeedPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_published_total",
			Help:      "Total number of change feed events published",
		},
		[]string{"type", "status"},
	)

	// FeedDelivered counts change feed events handed to subscribers.
	FeedDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_delivered_total",
			Help:      "Total number of change feed events delivered to subscribers",
		},
		[]string{"type"},
	)

	// ReconcileEvents counts reconciler events by kind and outcome.
	ReconcileEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_events_total",
			Help:      "Total number of events folded into live view state",
		},
		[]string{"kind", "outcome"},
	)

	// LiveViews tracks mounted live views.
	LiveViews = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_views",
			Help:      "Number of currently mounted live views",
		},
	)

	// AuthAttempts counts sign-in callbacks by result.
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Total number of OAuth callbacks handled",
		},
		[]string{"result"},
	)

	// RateLimited counts requests rejected by a rate limiter.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by rate limiting",
		},
		[]string{"limiter"},
	)

	// ComponentUp reports the last health probe result per component.
	ComponentUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "component_up",
			Help:      "Component status from the health probe (1 = up, 0 = down)",
		},
		[]string{"component"},
	)
)

// RecordStoreOp records a record store operation.
func RecordStoreOp(op string, err error, started time.Time) {
	StoreOps.WithLabelValues(op, status(err)).Inc()
	StoreDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// RecordPublish records a change feed publish.
func RecordPublish(eventType string, err error) {
	FeedPublished.WithLabelValues(eventType, status(err)).Inc()
}

// RecordReconcile records one reconciler event.
func RecordReconcile(kind, outcome string) {
	ReconcileEvents.WithLabelValues(kind, outcome).Inc()
}

// SetComponentUp sets the health gauge for component.
func SetComponentUp(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	ComponentUp.WithLabelValues(component).Set(v)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
