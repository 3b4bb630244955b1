// Package metrics exposes the Prometheus registry of the Pokédex server.
// Upstream metrics are defined in their respective packages (client, cache,
// ratelimit, pokedex) to keep those packages independent; this package
// holds the HTTP surface metrics and the /metrics handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the server.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	websocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokedex_websocket_clients",
			Help: "Connected featured carousel websocket clients",
		},
	)
)

// ObserveRequest records one served HTTP request. route is the matched
// route pattern, not the raw path, to keep label cardinality bounded.
func ObserveRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// WebsocketConnected adjusts the connected websocket client gauge by delta.
func WebsocketConnected(delta int) {
	websocketClients.Add(float64(delta))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - pokeapi_requests_remaining (Gauge): Requests remaining in the current budget window
//   - pokeapi_rate_limit_blocks_total (Counter): Requests blocked at the critical threshold
//   - pokeapi_rate_limit_throttles_total (Counter): Requests throttled at the warning threshold
//   - pokeapi_rate_limit_upstream_blocks_total (Counter): 429 responses that set a block
//
// Cache Metrics (pkg/cache):
//   - pokeapi_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - pokeapi_cache_misses_total (Counter): Cache misses
//   - pokeapi_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - pokeapi_304_responses_total (Counter): 304 Not Modified responses
//   - pokeapi_conditional_requests_total (Counter): Conditional requests sent
//   - pokeapi_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - pokeapi_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and status
//   - pokeapi_request_duration_seconds{endpoint} (Histogram): Upstream request duration
//   - pokeapi_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - pokeapi_retries_total{error_class} (Counter): Retry attempts by error class
//   - pokeapi_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - pokeapi_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pokédex Metrics (pkg/pokedex):
//   - pokedex_records_cached (Gauge): Hydrated records held in memory
//   - pokedex_hydrations_total{result} (Counter): Record hydrations (cached, fetched, failed)
//
// HTTP Metrics (this package):
//   - http_requests_total{route, method, status} (Counter)
//   - http_request_duration_seconds{route} (Histogram)
//   - pokedex_websocket_clients (Gauge)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(pokeapi_cache_hits_total[5m])) /
//   (sum(rate(pokeapi_cache_hits_total[5m])) + sum(rate(pokeapi_cache_misses_total[5m])))
//
//   # Budget Status
//   pokeapi_requests_remaining < 20
//
//   # Record cache effectiveness
//   rate(pokedex_hydrations_total{result="cached"}[5m]) / rate(pokedex_hydrations_total[5m])
//
//   # P95 Page Latency
//   histogram_quantile(0.95, rate(http_request_duration_seconds_bucket{route="/api/pokemon"}[5m]))
