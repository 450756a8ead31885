package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Handler kinds used as metric label values.
const (
	kindJournal  = "journal"
	kindCategory = "category"
)

var (
	// HandlerCallsTotal counts handler invocations by outcome.
	HandlerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarfed_handler_calls_total",
			Help: "Total number of handler calls made during fan-out",
		},
		[]string{"kind", "operation", "status"},
	)
	// HandlerCallDuration is the latency of a single handler call.
	HandlerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scholarfed_handler_call_duration_seconds",
			Help:    "Handler call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "operation"},
	)
	// RowsSkippedTotal counts rows dropped during reconciliation.
	RowsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarfed_rows_skipped_total",
			Help: "Rows dropped during reconciliation",
		},
		[]string{"kind", "reason"},
	)
)
