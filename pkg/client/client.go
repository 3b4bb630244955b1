// Package client provides the PokeAPI HTTP client with a shared request
// budget, Redis-backed response caching and retry by error class.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex/pkg/cache"
	"github.com/Sternrassler/pokedex/pkg/logging"
	"github.com/Sternrassler/pokedex/pkg/ratelimit"
)

// DefaultBaseURL is the public PokeAPI root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Prometheus metrics for PokeAPI client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_requests_total",
		Help: "Total PokeAPI requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokeapi_request_duration_seconds",
		Help:    "PokeAPI request duration in seconds by endpoint",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_errors_total",
		Help: "Total PokeAPI errors by class",
	}, []string{"class"})
)

// Client is the PokeAPI client.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	baseURL     *url.URL
	retry       RetryConfig
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis client for caching and rate limit state.
	Redis *redis.Client

	// BaseURL is the API root; DefaultBaseURL when empty.
	BaseURL string

	// UserAgent identifies this application to PokeAPI.
	UserAgent string

	// RequestBudget is the number of upstream requests allowed per minute
	// across all instances sharing Redis.
	RequestBudget int

	// RespectExpires makes the cache honour upstream expiry (MUST be true).
	RespectExpires bool

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// MaxBudgetWait bounds how long a request without a stale fallback waits
	// for the budget window to reopen. Zero fails blocked requests at once.
	MaxBudgetWait time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, userAgent string) Config {
	return Config{
		Redis:          redis,
		BaseURL:        DefaultBaseURL,
		UserAgent:      userAgent,
		RequestBudget:  ratelimit.DefaultBudget,
		RespectExpires: true,
		Timeout:        15 * time.Second,
		MaxBudgetWait:  ratelimit.Window,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// New creates a new PokeAPI client.
func New(cfg Config) (*Client, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if !cfg.RespectExpires {
		return nil, fmt.Errorf("respect_expires must be true")
	}

	if cfg.RequestBudget < 10 {
		return nil, fmt.Errorf("request_budget must be >= 10 (got %d)", cfg.RequestBudget)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}

	logger := logging.NewLogger("pokeapi-client")

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger, cfg.RequestBudget),
		cache:       cache.NewManager(cfg.Redis),
		config:      cfg,
		baseURL:     baseURL,
		retry:       retry,
		logger:      logger,
	}, nil
}

// endpointOf returns the request path relative to the base URL, which is
// also the metrics label and cache endpoint.
func (c *Client) endpointOf(req *http.Request) string {
	endpoint := strings.TrimPrefix(req.URL.Path, c.baseURL.Path)
	if endpoint == "" {
		endpoint = "/"
	}
	return endpoint
}

// Do performs an HTTP request through the cache, the request budget and
// retry logic.
//
// Fresh cached GET responses are served without upstream traffic. Stale
// entries with validators turn the request into a conditional one; a 304
// refreshes the entry and serves the cached body. When retries are
// exhausted on a server or network error a stale entry is served instead.
// 4xx answers are returned to the caller with a nil error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := c.endpointOf(req)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	cacheable := req.Method == http.MethodGet
	cacheKey := cache.CacheKey{
		Endpoint:    endpoint,
		QueryParams: req.URL.Query(),
	}

	var cachedEntry *cache.CacheEntry
	if cacheable {
		entry, fresh, err := c.cache.Lookup(ctx, cacheKey)
		switch {
		case err == nil && fresh:
			c.logger.Debug().Str("endpoint", endpoint).Dur("age", entry.Age()).Msg("Cache hit")
			requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return cache.EntryToResponse(entry), nil
		case err == nil:
			cachedEntry = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	// Step 2: Check Rate Limit
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed && cachedEntry != nil {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter - serving stale")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return c.serveStale(cachedEntry, endpoint), nil
	}
	if !allowed && c.config.MaxBudgetWait > 0 {
		allowed, err = c.rateLimiter.Wait(ctx, c.config.MaxBudgetWait)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
			}
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, &APIError{
			StatusCode: http.StatusTooManyRequests,
			ErrorClass: ErrorClassRateLimit,
			Message:    "request budget exhausted",
			Err:        ErrRateLimited,
		}
	}

	// Step 3: Make Conditional Request for stale entries
	if cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 4: Set headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	// Step 5: Execute HTTP Request with Retry Logic
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing PokeAPI request")

	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.logger, c.retry, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		status := strconv.Itoa(resp.StatusCode)
		if resp.StatusCode < 400 {
			requestsTotal.WithLabelValues(endpoint, status).Inc()
			return nil
		}

		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		requestsTotal.WithLabelValues(endpoint, status).Inc()

		if !shouldRetry(errClass) {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Msg("PokeAPI client error")
			return nil
		}

		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
		if errClass == ErrorClassRateLimit {
			apiErr.RetryAfter, _ = ratelimit.RetryAfter(resp.Header, time.Now())
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		resp = nil
		return apiErr
	})

	if retryErr != nil {
		if cachedEntry != nil && !errors.Is(retryErr, ErrContextCancelled) {
			c.logger.Warn().Err(retryErr).Str("endpoint", endpoint).Msg("Upstream failed - serving stale cache entry")
			return c.serveStale(cachedEntry, endpoint), nil
		}
		return nil, retryErr
	}

	// Step 6: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		if cachedEntry == nil {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassClient,
				Message:    "304 Not Modified without cached entry",
			}
		}

		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		newExpires := cache.ExpiryFromHeaders(resp.Header)
		if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}
		cachedEntry.Expires = newExpires
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 7: Update Cache on success
	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

func (c *Client) serveStale(entry *cache.CacheEntry, endpoint string) *http.Response {
	requestsTotal.WithLabelValues(endpoint, "stale").Inc()
	resp := cache.EntryToResponse(entry)
	resp.Header.Set("X-Cache", "STALE")
	return resp
}

// classifyStatus categorizes an HTTP error status.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// URL resolves path (e.g. "/pokemon/25?x=y") against the base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

// Get performs a GET request to a PokeAPI path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// GetJSON performs a GET and decodes a 200 body into v. A 404 yields
// ErrNotFound; other statuses yield an *APIError.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Ping checks that the Redis backing the cache and rate limiter is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.config.Redis.Ping(ctx).Err()
}

// RateLimitState exposes the current request budget.
func (c *Client) RateLimitState(ctx context.Context) (*ratelimit.RateLimitState, error) {
	return c.rateLimiter.GetState(ctx)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager (for testing).
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
