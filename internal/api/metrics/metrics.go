// Package metrics defines and registers all custom Prometheus metrics
// for the field-operations API. It is the single source of truth for
// metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fieldops"

// MissionsCreatedTotal counts newly created missions.
// Label:
//   - statut: canonical status at creation (EN_COURS, ANNULE, TERMINE)
var MissionsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "missions_created_total",
		Help:      "Total number of missions created, by initial status.",
	},
	[]string{"statut"},
)

// MissionsCleanedTotal counts missions removed by the retention cleanup job.
var MissionsCleanedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "missions_cleaned_total",
		Help:      "Total number of terminal missions deleted by the cleanup job.",
	},
)

// MissionsOverdueDetected tracks how many missions the last overdue
// check found past their end date while still in progress.
var MissionsOverdueDetected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "missions_overdue_detected",
		Help:      "Number of overdue missions found by the most recent check.",
	},
)

// RelayMessagesTotal counts messages fanned out by the realtime relay.
// Label:
//   - kind: "chat_global", "chat_dm", "notify_agent", or "notify_all"
var RelayMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_messages_total",
		Help:      "Total number of messages relayed to connected clients, by kind.",
	},
	[]string{"kind"},
)

// RelayConnections tracks the number of currently connected realtime clients.
var RelayConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "relay_connections",
		Help:      "Current number of authenticated realtime connections.",
	},
)
