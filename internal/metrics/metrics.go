// Package metrics exposes Prometheus collectors for HTTP traffic, reactions, the
// newsletter fan-out, auth events and the post feed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "writerspace"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// result is one of recorded, duplicate, failed
	ReactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactions",
			Name:      "total",
			Help:      "Reaction attempts by type and result",
		},
		[]string{"type", "result"},
	)

	NewsletterFanoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "newsletter",
			Name:      "fanouts_total",
			Help:      "Number of publish notifications fanned out to subscribers",
		},
	)

	NewsletterSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "newsletter",
			Name:      "sends_total",
			Help:      "Per-recipient email sends by final status",
		},
		[]string{"status"},
	)

	// store is primary or fallback
	NewsletterStoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "newsletter",
			Name:      "store_operations_total",
			Help:      "Subscriber and audit store operations by operation and the store that served them",
		},
		[]string{"operation", "store"},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Auth state changes by event",
		},
		[]string{"event"},
	)

	PostCachePosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "post_cache",
			Name:      "posts",
			Help:      "Number of posts in the current cache snapshot",
		},
	)

	PostCacheSnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "post_cache",
			Name:      "snapshots_total",
			Help:      "Snapshots delivered to the post cache by outcome",
		},
		[]string{"outcome"},
	)
)
