package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	RequestsCreated *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	AcceptConflicts prometheus.Counter
	StoreFallbacks  *prometheus.CounterVec
	BackfillCopied  prometheus.Counter
	ActionDuration  prometheus.Histogram
	ErrorsCount     *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_created_total",
			Help:      "The total number of service requests created",
		}, []string{"mode"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "The total number of status transition attempts",
		}, []string{"action", "outcome"}),
		AcceptConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_conflicts_total",
			Help:      "The total number of accept attempts that lost the race",
		}),
		StoreFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fallback_total",
			Help:      "The total number of operations served by the fallback ledger",
		}, []string{"operation"}),
		BackfillCopied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_copied_total",
			Help:      "The total number of ledger rows backfilled into the primary store",
		}),
		ActionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Time taken to arbitrate request actions",
			Buckets:   prometheus.DefBuckets,
		}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
