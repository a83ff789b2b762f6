package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// storeMutations counts store commands by namespace and operation
	storeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "renthunt_store_mutations_total",
		Help: "Total store mutations by namespace and operation",
	}, []string{"namespace", "operation"})

	// snapshotWriteFailures counts snapshot writes that did not reach local storage
	snapshotWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "renthunt_snapshot_write_failures_total",
		Help: "Total failed snapshot writes by namespace",
	}, []string{"namespace"})

	// hubDroppedEvents counts change events dropped because the hub queue was full
	hubDroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renthunt_hub_dropped_events_total",
		Help: "Total change events dropped by the websocket hub",
	})

	// hubConnections tracks connected change-feed subscribers
	hubConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "renthunt_hub_connections",
		Help: "Number of connected change feed subscribers",
	})
)
