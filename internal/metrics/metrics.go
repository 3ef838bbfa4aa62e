package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedFetches counts upstream fetch attempts by outcome
	// (success, http_error, transport_error, decode_error).
	FeedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pnh_feed_fetch_attempts_total",
			Help: "Upstream feed fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// CacheLookups counts freshness-cache lookups by result (hit, stale, miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pnh_cache_lookups_total",
			Help: "Freshness cache lookups by result",
		},
		[]string{"result"},
	)

	// RecordsRejected counts raw feed records dropped during normalization.
	RecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pnh_records_rejected_total",
			Help: "Raw records rejected by validation, by reason",
		},
		[]string{"reason"},
	)

	// RecordsAccepted counts raw feed records that passed normalization.
	RecordsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pnh_records_accepted_total",
			Help: "Raw records accepted by validation",
		},
	)
)
