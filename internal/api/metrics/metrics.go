// Package metrics defines and registers all custom Prometheus metrics for the
// commerce API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "commerce"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// GateRejectionsTotal counts requests refused by the auth gates.
// Labels:
//   - gate: "authentication" or "authorization"
//   - reason: "missing_token", "invalid_token", "expired_token", "user_not_found", "role_mismatch"
var GateRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_rejections_total",
		Help:      "Total number of requests rejected by the authentication/authorization gates.",
	},
	[]string{"gate", "reason"},
)

// LoginsTotal counts login attempts by result ("success", "not_found", "bad_password", "error").
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// PaymentOrdersTotal counts order submissions to the provider ("created" or "error").
var PaymentOrdersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_orders_total",
		Help:      "Total number of payment orders submitted to the provider, by result.",
	},
	[]string{"result"},
)

// WebhookEventsTotal counts processed webhook deliveries.
// Label:
//   - status: authoritative provider status, or "invalid" / "lookup_failed"
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Total number of payment webhooks processed, by authoritative status.",
	},
	[]string{"status"},
)

// WebhookDedupTotal counts deduplication decisions ("hit" or "miss").
var WebhookDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_dedup_total",
		Help:      "Total number of approval deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// WebhookQueueDepth tracks the number of webhooks waiting in each worker channel.
var WebhookQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "webhook_queue_depth",
		Help:      "Current number of webhooks pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// WebhookProcessingDuration measures webhook handling from dequeue to publish.
var WebhookProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "webhook_processing_duration_seconds",
		Help:      "Duration of webhook processing including the provider lookup.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsPublishedTotal counts payment notifications handed to the hub.
var NotificationsPublishedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_published_total",
		Help:      "Total number of payment notifications published.",
	},
)

// HubSubscribers tracks currently connected websocket subscribers.
var HubSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hub_subscribers",
		Help:      "Current number of websocket subscribers joined to a room.",
	},
)
