// Package boltmetrics defines the prometheus metrics exported by
// connection, pool, and routing-pool lifecycles.
package boltmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionsOpened counts successful Connection opens, by server.
	ConnectionsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbolt_connections_opened_total",
			Help: "total connections successfully opened, by server address",
		},
		[]string{"server"},
	)

	// ConnectionsClosed counts Connection closes, by server and reason
	// (explicit, defunct, failed from Connection.Close; lifetime and
	// destroy from pool.Pool, recorded in addition to Close's own count).
	ConnectionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbolt_connections_closed_total",
			Help: "total connections closed, by server address and reason",
		},
		[]string{"server", "reason"},
	)

	// BytesSent/BytesReceived track wire traffic per connection lifecycle.
	BytesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbolt_bytes_sent_total",
			Help: "total bytes sent, by server address",
		},
		[]string{"server"},
	)
	BytesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbolt_bytes_received_total",
			Help: "total bytes received, by server address",
		},
		[]string{"server"},
	)

	// ConnectionOpenSeconds tracks the latency of opening a connection
	// (dial + handshake + HELLO), by server.
	ConnectionOpenSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphbolt_connection_open_seconds",
			Help:    "connection open latency distribution (dial+handshake+hello)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"server"},
	)

	// PoolInUse/PoolIdle report DirectPool occupancy, by server.
	PoolInUse = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graphbolt_pool_in_use_connections",
			Help: "leased connections currently held from the pool, by server",
		},
		[]string{"server"},
	)
	PoolIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graphbolt_pool_idle_connections",
			Help: "idle connections currently held by the pool, by server",
		},
		[]string{"server"},
	)

	// PoolAcquisitionsWaited counts acquisitions that had to block on the
	// condition variable before a slot became free.
	PoolAcquisitionsWaited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbolt_pool_acquisitions_waited_total",
			Help: "acquisitions that blocked waiting for a free slot, by server",
		},
		[]string{"server"},
	)

	// RoutingTableRefreshes counts routing table refresh attempts and
	// their outcome.
	RoutingTableRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbolt_routing_table_refreshes_total",
			Help: "routing table refresh attempts, by outcome",
		},
		[]string{"outcome"},
	)
)
