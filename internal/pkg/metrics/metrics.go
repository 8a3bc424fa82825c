// Package metrics defines and registers all custom Prometheus metrics for the
// HIS access service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "his"

// ── Session cache metrics ─────────────────────────────────────────────────────

// SessionCacheLookupsTotal counts session cache lookups.
// Label:
//   - result: "hit" (served from memory), "miss" (absent), "stale" (older than
//     the staleness interval) or "dead" (cached snapshot no longer alive)
var SessionCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cache_lookups_total",
		Help:      "Total number of session cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// SessionCacheReloadDuration measures round trips to the durable session store.
// Label:
//   - outcome: "ok", "no_such_session", "expired" or "error"
var SessionCacheReloadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_cache_reload_duration_seconds",
		Help:      "Duration of session cache reloads from the durable store.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// SessionCacheEntries tracks the number of cached sessions.
var SessionCacheEntries = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_cache_entries",
		Help:      "Current number of sessions held by the session cache.",
	},
)

// SessionsSweptTotal counts expired sessions removed by the sweeper.
var SessionsSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_swept_total",
		Help:      "Total number of expired sessions deleted by the maintenance sweep.",
	},
)

// LoginsTotal counts credential logins.
// Label:
//   - result: "ok", "invalid_credentials" or "locked"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of credential logins, labelled by result.",
	},
	[]string{"result"},
)

// ── Entitlement metrics ───────────────────────────────────────────────────────

// AuthorizationDecisionsTotal counts entitlement decisions.
// Labels:
//   - result: "granted", "denied" or "locked"
//   - reason: "root", "admin", "account", "customer" or "maintenance"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of entitlement decisions, labelled by result and deciding step.",
	},
	[]string{"result", "reason"},
)

// DependencyCyclesDetected reports the number of dependency cycles found by
// the last integrity check.
var DependencyCyclesDetected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "service_dependency_cycles",
		Help:      "Number of service dependency cycles found by the last integrity check.",
	},
)
