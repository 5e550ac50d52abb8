// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents counts webhook events received, by event type and action.
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stevedore",
			Name:      "webhook_events_total",
			Help:      "Number of webhook events received",
		},
		[]string{"event", "action"},
	)

	// Deliveries counts finished deliveries by terminal status.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stevedore",
			Name:      "deliveries_total",
			Help:      "Number of deliveries by terminal status",
		},
		[]string{"status"},
	)

	// DeliveriesInflight tracks pipelines currently running.
	DeliveriesInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stevedore",
			Name:      "deliveries_inflight",
			Help:      "Number of delivery pipelines currently running",
		},
	)

	// BuildDuration observes wall clock pipeline duration by result.
	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stevedore",
			Name:      "build_duration_seconds",
			Help:      "Wall clock duration of the checkout, build and push pipeline",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"result"},
	)
)
