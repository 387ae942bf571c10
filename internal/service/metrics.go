package service

import "github.com/prometheus/client_golang/prometheus"

var transitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rescue_transitions_total",
		Help: "Status transition attempts by prior status, requested status and result",
	},
	[]string{"from", "to", "result"},
)

var auditPublishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rescue_audit_events_published_total",
		Help: "Audit events forwarded to the broker by result",
	},
	[]string{"result"},
)

// Collectors returns the service metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{transitionsTotal, auditPublishedTotal}
}
