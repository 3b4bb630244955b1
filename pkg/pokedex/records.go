package pokedex

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

var recordsCached = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "pokedex_records_cached",
	Help: "Number of hydrated Pokémon records held in memory",
})

// RecordCache holds hydrated records for the process lifetime, keyed by id
// with a lowercase name alias. An id is stored at most once; records are
// never evicted.
type RecordCache struct {
	mu     sync.RWMutex
	byID   map[int]*pokeapi.Pokemon
	byName map[string]int
}

// NewRecordCache creates an empty cache.
func NewRecordCache() *RecordCache {
	return &RecordCache{
		byID:   make(map[int]*pokeapi.Pokemon),
		byName: make(map[string]int),
	}
}

// Get returns the record for id.
func (c *RecordCache) Get(id int) (*pokeapi.Pokemon, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// GetByName returns the record whose name matches, case-insensitively.
func (c *RecordCache) GetByName(name string) (*pokeapi.Pokemon, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return c.byID[id], true
}

// Put stores a record. A record already cached under the same id is kept,
// so callers holding it never see it replaced. Put returns the cached record.
func (c *RecordCache) Put(p *pokeapi.Pokemon) *pokeapi.Pokemon {
	if p == nil || p.ID <= 0 {
		return p
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byID[p.ID]; ok {
		return existing
	}
	c.byID[p.ID] = p
	if p.Name != "" {
		c.byName[strings.ToLower(p.Name)] = p.ID
	}
	recordsCached.Set(float64(len(c.byID)))
	return p
}

// Missing returns the ids not yet cached, preserving order and dropping
// duplicates.
func (c *RecordCache) Missing(ids []int) []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[int]bool, len(ids))
	var missing []int
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Len returns the number of cached records.
func (c *RecordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
