package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_hits_total",
			Help: "Total number of PokeAPI response cache hits",
		},
		[]string{"layer"},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_misses_total",
			Help: "Total number of PokeAPI response cache misses",
		},
	)

	// CacheSize tracks bytes written to the cache by layer.
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pokeapi_cache_size_bytes",
			Help: "Bytes of PokeAPI responses written to the cache",
		},
		[]string{"layer"},
	)

	// NotModifiedResponses counts 304 answers to conditional requests.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_304_responses_total",
			Help: "Total number of PokeAPI 304 Not Modified responses",
		},
	)

	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_conditional_requests_total",
			Help: "Total number of conditional requests sent to PokeAPI",
		},
	)

	// CacheErrors tracks failures by operation: get, set, delete.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"},
	)
)
