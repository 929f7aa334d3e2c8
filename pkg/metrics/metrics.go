// Package metrics defines and registers all custom Prometheus metrics for the
// dine dorm API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// through promauto, and exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dinedorm"

// ── Meal metrics ─────────────────────────────────────────────────────────────

// LikesTotal counts like attempts.
// Label:
//   - result: "accepted", "already_liked" or "not_found"
var LikesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "likes_total",
		Help:      "Total number of meal like attempts, by result.",
	},
	[]string{"result"},
)

// PromotionsTotal counts upcoming-meal promotions.
// Label:
//   - result: "promoted", "not_found", "already_promoted", "insert_failed" or "partial"
var PromotionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promotions_total",
		Help:      "Total number of upcoming meal promotions, by result.",
	},
	[]string{"result"},
)

// ── Payment metrics ──────────────────────────────────────────────────────────

// PaymentsRecordedTotal counts stored payments.
// Label:
//   - badge: the badge granted by the payment (e.g. "gold")
var PaymentsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_recorded_total",
		Help:      "Total number of payments recorded, by badge.",
	},
	[]string{"badge"},
)

// PaymentIntentsTotal counts payment intent creations against the gateway.
// Label:
//   - result: "ok" or "error"
var PaymentIntentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_intents_total",
		Help:      "Total number of payment intents requested from the gateway.",
	},
	[]string{"result"},
)

// BadgeRetriesTotal counts queued badge update attempts.
// Label:
//   - result: "settled", "retry" or "gave_up"
var BadgeRetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "badge_retries_total",
		Help:      "Total number of queued badge update attempts, by result.",
	},
	[]string{"result"},
)

// BadgeQueueDepth tracks the number of badge updates waiting in each worker channel.
var BadgeQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "badge_queue_depth",
		Help:      "Current number of badge updates pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Consistency metrics ──────────────────────────────────────────────────────

// PartialFailuresTotal counts two-write workflows that left inconsistent state.
// Label:
//   - workflow: "payment" or "promotion"
var PartialFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "partial_failures_total",
		Help:      "Total number of workflows where only the first of two writes succeeded.",
	},
	[]string{"workflow"},
)

// ReconciledTotal counts records repaired by the reconciler.
// Label:
//   - kind: "badge" or "promotion"
var ReconciledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciled_total",
		Help:      "Total number of inconsistent records repaired by the reconciler.",
	},
	[]string{"kind"},
)

// WorkflowDuration measures end-to-end duration of multi-write workflows.
// Label:
//   - workflow: "payment" or "promotion"
var WorkflowDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "workflow_duration_seconds",
		Help:      "Duration of multi-write workflows from first read to last write.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"workflow"},
)
