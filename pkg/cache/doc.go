// Package cache stores PokeAPI responses in Redis so that every server
// instance shares one copy of each record.
//
// PokeAPI data changes only between game releases, so entries live long:
// expiry comes from the Expires header, then Cache-Control max-age, then
// DefaultTTL. Entries keep the ETag and Last-Modified validators so that a
// stale entry can be refreshed with a conditional request.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/pokemon/",
//		QueryParams: url.Values{"limit": []string{"20"}, "offset": []string{"0"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from PokeAPI, then:
//		entry, _ = cache.ResponseToEntry(resp)
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Metrics
//
//   - pokeapi_cache_hits_total{layer="redis"}
//   - pokeapi_cache_misses_total
//   - pokeapi_cache_size_bytes{layer="redis"}
//   - pokeapi_304_responses_total
//   - pokeapi_conditional_requests_total
//   - pokeapi_cache_errors_total{operation}
package cache
