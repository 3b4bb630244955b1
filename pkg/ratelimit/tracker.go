package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ThrottleDelay is how long a request waits in the warning band.
const ThrottleDelay = time.Second

// Prometheus metrics for rate limit tracking.
var (
	requestsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pokeapi_requests_remaining",
		Help: "Requests remaining in the current PokeAPI budget window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokeapi_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the budget is exhausted",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokeapi_rate_limit_throttles_total",
		Help: "Total number of requests throttled in the warning band",
	})

	upstreamBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokeapi_rate_limit_upstream_blocks_total",
		Help: "Total number of 429 responses that blocked the budget",
	})
)

// Tracker counts upstream requests and gates new ones.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
	budget int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTracker creates a tracker allowing budget requests per Window.
// A budget <= 0 selects DefaultBudget.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger, budget int) *Tracker {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Tracker{
		redis:  redisClient,
		logger: logger,
		budget: budget,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Budget returns the configured requests per window.
func (t *Tracker) Budget() int {
	return t.budget
}

func (t *Tracker) windowKey(now time.Time) string {
	return fmt.Sprintf("%s:%d", RedisKeyWindowPrefix, now.Truncate(Window).Unix())
}

// upstreamLimit is a budget imposed by PokeAPI itself: a 429 block or
// reported X-RateLimit headers.
type upstreamLimit struct {
	remaining int
	resetAt   time.Time
	ok        bool
}

func (t *Tracker) readUpstream(ctx context.Context, now time.Time) (upstreamLimit, error) {
	blockedUntil, err := t.redis.Get(ctx, RedisKeyBlockedUntil).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return upstreamLimit{}, fmt.Errorf("get blocked until: %w", err)
	}
	if err == nil {
		if until := time.UnixMilli(blockedUntil); until.After(now) {
			return upstreamLimit{remaining: 0, resetAt: until, ok: true}, nil
		}
	}

	reported, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if errors.Is(err, redis.Nil) {
		return upstreamLimit{}, nil
	}
	if err != nil {
		return upstreamLimit{}, fmt.Errorf("get reported remaining: %w", err)
	}
	limit := upstreamLimit{remaining: reported, resetAt: now.Truncate(Window).Add(Window), ok: true}
	if reset, err := t.redis.Get(ctx, RedisKeyReset).Int64(); err == nil {
		limit.resetAt = time.UnixMilli(reset)
	}
	return limit, nil
}

// newState combines the local window count with an upstream limit; the
// tighter one wins.
func (t *Tracker) newState(now time.Time, localRemaining int, up upstreamLimit) *RateLimitState {
	state := &RateLimitState{
		RequestsRemaining: max(0, localRemaining),
		ResetAt:           now.Truncate(Window).Add(Window),
		LastUpdate:        now,
	}
	if up.ok && up.remaining < state.RequestsRemaining {
		state.RequestsRemaining = max(0, up.remaining)
		state.ResetAt = up.resetAt
	}
	state.UpdateHealth()
	return state
}

// GetState reads the current budget from Redis. The tightest of the local
// window counter, an upstream block and upstream-reported headers wins.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	now := t.now()

	used, err := t.redis.Get(ctx, t.windowKey(now)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get window counter: %w", err)
	}

	up, err := t.readUpstream(ctx, now)
	if err != nil {
		return nil, err
	}
	return t.newState(now, t.budget-used, up), nil
}

// UpdateFromHeaders applies upstream rate limit signals. A 429 blocks all
// requests until Retry-After (one Window when absent) has elapsed.
// X-RateLimit-Remaining and X-RateLimit-Reset (seconds) are honoured when a
// CDN in front of PokeAPI reports them.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, statusCode int, headers http.Header) error {
	now := t.now()

	if statusCode == http.StatusTooManyRequests {
		wait, ok := RetryAfter(headers, now)
		if !ok {
			wait = Window
		}
		if wait <= 0 {
			return nil
		}
		until := now.Add(wait)
		if err := t.redis.Set(ctx, RedisKeyBlockedUntil, until.UnixMilli(), wait).Err(); err != nil {
			return fmt.Errorf("store upstream block: %w", err)
		}
		upstreamBlocksTotal.Inc()
		requestsRemaining.Set(0)
		t.logger.Error().
			Dur("retry_after", wait).
			Time("blocked_until", until).
			Msg("PokeAPI returned 429 - requests blocked")
		return nil
	}

	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
	}

	resetSeconds := int(Window / time.Second)
	if resetStr := headers.Get("X-RateLimit-Reset"); resetStr != "" {
		resetSeconds, err = strconv.Atoi(resetStr)
		if err != nil {
			return fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
		}
	}
	if resetSeconds <= 0 {
		return nil
	}

	ttl := time.Duration(resetSeconds) * time.Second
	resetAt := now.Add(ttl)

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, remain, ttl)
	pipe.Set(ctx, RedisKeyReset, resetAt.UnixMilli(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	requestsRemaining.Set(float64(remain))

	state := &RateLimitState{RequestsRemaining: remain, ResetAt: resetAt, LastUpdate: now}
	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().Int("requests_remaining", remain).Msg("PokeAPI budget CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().Int("requests_remaining", remain).Msg("PokeAPI budget WARNING - requests will be throttled")
	default:
		t.logger.Debug().Int("requests_remaining", remain).Time("reset_at", resetAt).Msg("PokeAPI budget updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now and, if so,
// counts it against the window. The slot is claimed with INCR before the
// decision so concurrent callers on any instance never overrun the budget;
// a refused claim is handed back. In the warning band it sleeps
// ThrottleDelay first; the sleep honours ctx.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	now := t.now()

	up, err := t.readUpstream(ctx, now)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}
	if up.ok && up.remaining < ThresholdCritical {
		t.block(t.newState(now, t.budget, up))
		return false, nil
	}

	key := t.windowKey(now)
	pipe := t.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("count request: %w", err)
	}

	// Remaining as seen before this claim.
	state := t.newState(now, t.budget-int(incr.Val())+1, up)
	requestsRemaining.Set(float64(max(0, state.RequestsRemaining-1)))

	if state.NeedsCriticalBlock() {
		t.refund(ctx, key)
		t.block(state)
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("requests_remaining", state.RequestsRemaining).
			Msg("PokeAPI budget low - throttling request")

		rateLimitThrottlesTotal.Inc()
		if err := t.sleep(ctx, ThrottleDelay); err != nil {
			t.refund(ctx, key)
			return false, err
		}
	}

	return true, nil
}

func (t *Tracker) block(state *RateLimitState) {
	t.logger.Error().
		Int("requests_remaining", state.RequestsRemaining).
		Dur("wait_duration", state.ResetAt.Sub(state.LastUpdate)).
		Msg("PokeAPI budget exhausted - blocking request")
	rateLimitBlocksTotal.Inc()
}

func (t *Tracker) refund(ctx context.Context, key string) {
	if err := t.redis.Decr(context.WithoutCancel(ctx), key).Err(); err != nil {
		t.logger.Warn().Err(err).Str("key", key).Msg("Failed to release budget slot")
	}
}

// minBlockedWait is the shortest sleep between two claims while blocked.
const minBlockedWait = 100 * time.Millisecond

// Wait claims a request slot, sleeping through blocked windows until one
// frees up. It returns false without sleeping when the next slot is further
// away than maxWait in total.
func (t *Tracker) Wait(ctx context.Context, maxWait time.Duration) (bool, error) {
	var waited time.Duration
	for {
		allowed, err := t.ShouldAllowRequest(ctx)
		if err != nil || allowed {
			return allowed, err
		}

		d, err := t.WaitDuration(ctx)
		if err != nil {
			return false, err
		}
		d = max(d, minBlockedWait)
		if waited+d > maxWait {
			return false, nil
		}

		t.logger.Info().Dur("wait", d).Msg("Waiting for PokeAPI budget window")
		if err := t.sleep(ctx, d); err != nil {
			return false, err
		}
		waited += d
	}
}

// WaitDuration returns how long a blocked caller should wait before retrying.
func (t *Tracker) WaitDuration(ctx context.Context) (time.Duration, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return 0, err
	}
	if !state.NeedsCriticalBlock() {
		return 0, nil
	}
	return max(0, state.ResetAt.Sub(state.LastUpdate)), nil
}

// RetryAfter parses a Retry-After header given either as delay seconds or
// as an HTTP date. ok is false when the header is absent or invalid.
func RetryAfter(headers http.Header, now time.Time) (wait time.Duration, ok bool) {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return max(0, time.Duration(seconds)*time.Second), true
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(0, at.Sub(now)), true
	}
	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
