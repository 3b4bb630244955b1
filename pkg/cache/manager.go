package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the key was not found or the entry expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry could not be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// StaleRetention is how long an expired entry stays in Redis so that it can
// be revalidated with a conditional request instead of refetched.
const StaleRetention = 7 * 24 * time.Hour

// Manager handles response caching in Redis.
type Manager struct {
	redis *redis.Client
}

// NewManager creates a cache manager. It panics on a nil client.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis: redisClient,
	}
}

// Get retrieves an entry. Returns ErrCacheMiss if the key doesn't exist or
// the entry has expired.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	cacheKey := key.String()

	data, err := m.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Lookup returns the stored entry whether fresh or stale; fresh reports
// whether it is still within its expiry. Returns ErrCacheMiss when absent.
func (m *Manager) Lookup(ctx context.Context, key CacheKey) (entry *CacheEntry, fresh bool, err error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, false, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	entry = &CacheEntry{}
	if err := json.Unmarshal(data, entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		CacheMisses.Inc()
		return entry, false, nil
	}

	CacheHits.WithLabelValues("redis").Inc()
	return entry, true, nil
}

// Set stores an entry. Redis keeps it for its remaining lifetime plus
// StaleRetention. Expired entries are silently skipped.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl+StaleRetention).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(data)))
	return nil
}

// Delete removes an entry.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// UpdateTTL extends an existing, possibly stale, entry after a 304 Not
// Modified.
func (m *Manager) UpdateTTL(ctx context.Context, key CacheKey, newExpires time.Time) error {
	entry, _, err := m.Lookup(ctx, key)
	if err != nil {
		return err
	}

	entry.Expires = newExpires
	return m.Set(ctx, key, entry)
}
