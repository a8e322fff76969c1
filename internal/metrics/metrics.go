// Package metrics holds the Prometheus collectors of the asset service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Forest builds
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetvault_forest_builds_total",
			Help: "Total number of forest builds",
		},
		[]string{"source", "status"},
	)

	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assetvault_forest_build_duration_seconds",
			Help:    "Time taken to build a forest",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"source"},
	)

	ForestAssets = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assetvault_forest_assets",
			Help:    "Number of assets in a built forest",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	// Refresh pipeline
	RefreshRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetvault_refresh_requests_total",
			Help: "Total number of refresh requests",
		},
		[]string{"status"},
	)

	RefreshQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assetvault_refresh_queue_depth",
			Help: "Refresh requests waiting for a worker",
		},
	)

	SnapshotLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetvault_snapshot_lookups_total",
			Help: "Forest snapshot lookups by result",
		},
		[]string{"result"},
	)

	ItemCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetvault_item_cache_lookups_total",
			Help: "Item catalog cache lookups by result",
		},
		[]string{"result"},
	)
)
