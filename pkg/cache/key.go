package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every response cache key in Redis.
const KeyPrefix = "pokeapi"

// CacheKey identifies a cached PokeAPI response.
type CacheKey struct {
	// Endpoint is the API path relative to the base URL, e.g. "/pokemon/25".
	Endpoint string

	// PathParams are named path parameters, e.g. {"id": "25"}.
	PathParams map[string]string

	// QueryParams are the request query parameters, e.g. limit and offset.
	QueryParams url.Values
}

// String generates a deterministic key.
//
// Example:
//
//	pokeapi:pokemon:limit=20:offset=40
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.ToLower(strings.Trim(k.Endpoint, "/"))
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.PathParams) > 0 {
		keys := make([]string, 0, len(k.PathParams))
		for key := range k.PathParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.PathParams[key]))
		}
	}

	if len(k.QueryParams) > 0 {
		keys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
