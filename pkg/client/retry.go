package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokeapi_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts including the initial request.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps every wait, including upstream Retry-After.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass derives the policy for an error class from base.
// Network errors wait twice as long as server errors, rate limiting five
// times as long.
func RetryConfigForErrorClass(errorClass ErrorClass, base RetryConfig) RetryConfig {
	cfg := base
	switch errorClass {
	case ErrorClassServer:
		cfg.MaxBackoff = min(base.MaxBackoff, 10*time.Second)
	case ErrorClassRateLimit:
		cfg.InitialBackoff = 5 * base.InitialBackoff
		cfg.MaxBackoff = max(base.MaxBackoff, 60*time.Second)
	case ErrorClassNetwork:
		cfg.InitialBackoff = 2 * base.InitialBackoff
	}
	return cfg
}

// backoffFor returns the un-jittered wait before retry number attempt (1-based).
func (c RetryConfig) backoffFor(attempt int) time.Duration {
	backoff := c.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * c.BackoffMultiplier)
		if backoff >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return min(backoff, c.MaxBackoff)
}

// withJitter spreads d by +-20%.
func withJitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
}

// retryWithBackoff runs fn until it succeeds, returns a non-retryable error
// or base.MaxAttempts is reached. The class of each failure selects the
// backoff policy; a Retry-After on an APIError raises the wait.
func retryWithBackoff(ctx context.Context, logger zerolog.Logger, base RetryConfig, fn func() error) error {
	attempts := max(1, base.MaxAttempts)

	var lastErr error
	var lastClass ErrorClass

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		lastClass = classOf(err)

		if !shouldRetry(lastClass) {
			return err
		}

		if attempt >= attempts {
			break
		}

		cfg := RetryConfigForErrorClass(lastClass, base)
		wait := withJitter(cfg.backoffFor(attempt))

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > wait {
			wait = min(apiErr.RetryAfter, cfg.MaxBackoff)
		}

		retriesTotal.WithLabelValues(string(lastClass)).Inc()
		retryBackoffSeconds.WithLabelValues(string(lastClass)).Observe(wait.Seconds())

		logger.Warn().
			Err(err).
			Str("error_class", string(lastClass)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	logger.Error().
		Err(lastErr).
		Str("error_class", string(lastClass)).
		Int("max_attempts", attempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}
