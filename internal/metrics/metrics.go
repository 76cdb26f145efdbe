package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts processed chain events by type and outcome
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_events_total",
			Help: "Total number of chain events handled",
		},
		[]string{"event_type", "result"},
	)

	// EventDuration tracks per-event processing time
	EventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indexer_event_duration_seconds",
			Help:    "Event processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	// CursorBlock reports the last block number durably recorded per tracker
	CursorBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "indexer_cursor_block",
			Help: "Last successfully processed block number",
		},
		[]string{"tracker"},
	)

	// SearchIndexFailures counts non-fatal search upsert failures
	SearchIndexFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_search_index_failures_total",
			Help: "Total number of search index upserts that failed",
		},
	)

	// NotifyFailures counts non-fatal notification fan-out failures
	NotifyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_notify_failures_total",
			Help: "Total number of notification deliveries that failed",
		},
	)

	// ChainReadErrors counts retryable chain read failures by contract kind
	ChainReadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_chain_read_errors_total",
			Help: "Total number of failed contract reads",
		},
		[]string{"kind"},
	)

	// RetriesTotal counts retry attempts made while processing events
	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_event_retries_total",
			Help: "Total number of retry attempts for failed events",
		},
	)
)
