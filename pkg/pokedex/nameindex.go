package pokedex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Sternrassler/pokedex/pkg/pagination"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// Suggestion is a name index entry matching a prefix.
type Suggestion struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// NameIndex holds every species name. The bloom filter answers definite
// misses before search goes upstream; it is only consulted once the index
// has been built from a complete listing.
type NameIndex struct {
	mu       sync.RWMutex
	names    []string
	ids      map[string]int
	filter   *bloom.BloomFilter
	complete bool
}

// NewNameIndex creates an empty index. An empty index reports every name as
// possibly existing.
func NewNameIndex() *NameIndex {
	return &NameIndex{ids: make(map[string]int)}
}

// Build fetches the whole species listing with a worker pool and loads it.
// After a partial fetch the index still serves suggestions but MayExist
// stays permissive.
func (ix *NameIndex) Build(ctx context.Context, fetcher pagination.PageFetcher[pokeapi.NamedAPIResource], cfg pagination.Config) error {
	entries, err := pagination.NewBatchFetcher(fetcher, cfg).FetchAll(ctx)
	ix.Load(entries, err == nil)
	return err
}

// Load replaces the index contents. complete marks the listing as the full
// set of names.
func (ix *NameIndex) Load(entries []pokeapi.NamedAPIResource, complete bool) {
	names := make([]string, 0, len(entries))
	ids := make(map[string]int, len(entries))
	filter := bloom.NewWithEstimates(uint(max(len(entries), 1)), 0.001)

	for _, e := range entries {
		name := strings.ToLower(e.Name)
		if name == "" {
			continue
		}
		if _, dup := ids[name]; dup {
			continue
		}
		id, _ := pokeapi.IDFromURL(e.URL)
		ids[name] = id
		names = append(names, name)
		filter.AddString(name)
	}
	sort.Strings(names)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.names = names
	ix.ids = ids
	ix.filter = filter
	ix.complete = complete && len(names) > 0
}

// Complete reports whether the index holds the full listing.
func (ix *NameIndex) Complete() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.complete
}

// Len returns the number of indexed names.
func (ix *NameIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.names)
}

// MayExist returns false only when name is definitely not a species.
func (ix *NameIndex) MayExist(name string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.complete {
		return true
	}
	return ix.filter.TestString(strings.ToLower(strings.TrimSpace(name)))
}

// Suggest returns up to n names starting with prefix, alphabetically.
func (ix *NameIndex) Suggest(prefix string, n int) []Suggestion {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || n <= 0 {
		return []Suggestion{}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := []Suggestion{}
	start := sort.SearchStrings(ix.names, prefix)
	for _, name := range ix.names[start:] {
		if !strings.HasPrefix(name, prefix) || len(out) == n {
			break
		}
		out = append(out, Suggestion{ID: ix.ids[name], Name: name, DisplayName: FormatName(name)})
	}
	return out
}
