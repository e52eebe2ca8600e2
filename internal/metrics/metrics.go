package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubConnectedChannels tracks currently registered channels per hub
	HubConnectedChannels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hub_connected_channels",
			Help: "Currently registered channels per hub",
		},
		[]string{"hub"},
	)

	// HubMessagesPublished tracks messages published (recorded to history and fanned out)
	HubMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_messages_published_total",
			Help: "Messages published to history and broadcast, per hub",
		},
		[]string{"hub"},
	)

	// HubHistorySize tracks the current history buffer length per hub
	HubHistorySize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hub_history_size",
			Help: "Current history buffer length per hub",
		},
		[]string{"hub"},
	)

	// HubSlowChannelsEvicted tracks channels evicted because their send buffer filled
	HubSlowChannelsEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_slow_channels_evicted_total",
			Help: "Channels evicted due to a full send buffer, per hub",
		},
		[]string{"hub"},
	)

	// HubCommandChannelDepth tracks current command channel depth per hub
	HubCommandChannelDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current command channel depth per hub",
		},
		[]string{"hub"},
	)
)

// Ledger metrics
var (
	// LedgerClients tracks the number of identities currently known to the ledger
	LedgerClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_clients",
			Help: "Identities currently tracked by the status ledger",
		},
	)

	// LedgerAggregatesPublished tracks aggregate snapshots published to the status hub
	LedgerAggregatesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_aggregates_published_total",
			Help: "Aggregate snapshots published to the status hub",
		},
	)
)

// WebSocket metrics
var (
	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Failed WebSocket keepalive pings",
		},
	)
)
