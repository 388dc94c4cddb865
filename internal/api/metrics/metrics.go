// Package metrics defines and registers all custom Prometheus metrics for the
// bakery portal. It is the single source of truth for metric names, labels,
// and help strings; metrics register with the default registry at import time
// via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bakery_portal"

// ── Backend gateway metrics ──────────────────────────────────────────────────

// BackendRequestsTotal counts outbound requests to the bakery backend.
// Labels:
//   - method: HTTP method (e.g. "GET")
//   - status: HTTP status code of the response, or "error" when no response
//     was received (transport failure)
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests sent to the bakery backend.",
	},
	[]string{"method", "status"},
)

// BackendRequestDuration measures outbound request latency end-to-end.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of requests to the bakery backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Session metrics ──────────────────────────────────────────────────────────

// SessionEventsTotal counts session lifecycle transitions.
// Label:
//   - event: "login_success", "login_failure", "register_success",
//     "register_failure", "restore_success", "restore_failure", "logout",
//     "forced_logout"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events, by event kind.",
	},
	[]string{"event"},
)

// ── Route guard metrics ──────────────────────────────────────────────────────

// GuardDecisionsTotal counts navigation decisions taken by the route guard.
// Label:
//   - decision: "render", "defer", "redirect_login", "redirect_home"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"decision"},
)
