// Package ratelimit keeps PokeAPI traffic within the fair-use budget.
// Request counts live in Redis so every server instance draws from the same
// per-minute window, and 429 responses block the whole fleet until the
// upstream Retry-After elapses.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyWindowPrefix = "pokeapi:rate_limit:window"
	RedisKeyBlockedUntil = "pokeapi:rate_limit:blocked_until"
	RedisKeyRemaining    = "pokeapi:rate_limit:remaining"
	RedisKeyReset        = "pokeapi:rate_limit:reset"
)

// Window is the length of one counting window.
const Window = time.Minute

// DefaultBudget is the number of upstream requests allowed per window.
const DefaultBudget = 600

// Thresholds for rate limit decisions.
const (
	// ThresholdCritical blocks all requests when the remaining budget falls below this value.
	ThresholdCritical = 5

	// ThresholdWarning throttles requests when the remaining budget falls below this value.
	ThresholdWarning = 20

	// ThresholdHealthy marks normal operation.
	ThresholdHealthy = 50
)

// RateLimitState is the budget as seen by this instance.
type RateLimitState struct {
	// RequestsRemaining is the number of requests left in the current window.
	RequestsRemaining int `json:"requests_remaining"`

	// ResetAt is when the window (or an upstream block) ends.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was read.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when RequestsRemaining >= ThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests must not be sent.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.RequestsRemaining < ThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.RequestsRemaining < ThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the budget resets, or 0.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth recomputes IsHealthy.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.RequestsRemaining >= ThresholdHealthy
}
