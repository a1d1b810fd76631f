// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "rncflow_notification_sweep_duration_seconds",
	Help:    "Duration of deadline notification sweeps in seconds",
	Buckets: prometheus.DefBuckets,
})

var SweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rncflow_notification_sweeps_total",
	Help: "Deadline notification sweeps by outcome (completed, skipped_locked, failed)",
}, []string{"outcome"})

var NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rncflow_notifications_created_total",
	Help: "Notifications created by the deadline sweep, per rule code",
}, []string{"rule"})

var NotificationsDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rncflow_notifications_duplicate_total",
	Help: "Notifications skipped because the same key was already delivered, per rule code",
}, []string{"rule"})

var RuleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rncflow_notification_rule_failures_total",
	Help: "Rule or entity evaluation failures isolated during a sweep, per rule code",
}, []string{"rule"})

var WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rncflow_workflow_transitions_total",
	Help: "Workflow transitions applied, per workflow and action",
}, []string{"workflow", "action"})

var FileCleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rncflow_file_cleanup_failures_total",
	Help: "Best-effort file deletions that failed and were only logged",
})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rncflow_http_requests_total",
	Help: "HTTP requests served, per method, route and status code",
}, []string{"method", "route", "status"})
