// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests counts calls to the Clash Royale API by outcome:
	// ok, forbidden, rate_limited, scope_unavailable, error.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clash_api_requests_total",
		Help: "Clash Royale API requests by outcome",
	}, []string{"outcome"})

	// RateLimitHits counts 429 responses separately so degradation is
	// visible even though the fetcher retries them.
	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clash_api_rate_limited_total",
		Help: "Clash Royale API 429 responses",
	})

	// Aggregations counts completed top-deck aggregations by provenance
	// (popular-decks, global-rankings, fallback-location, fallback).
	Aggregations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topdecks_aggregations_total",
		Help: "Completed top-deck aggregations by source",
	}, []string{"source"})
)
