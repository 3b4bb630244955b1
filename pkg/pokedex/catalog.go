// Package pokedex turns PokeAPI resources into the Pokédex views: the
// incrementally loaded card grid, search, the featured carousel and the
// per-Pokémon detail page.
package pokedex

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/pokedex/pkg/logging"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

var hydrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pokedex_hydrations_total",
	Help: "Record hydrations by result (cached, fetched, failed)",
}, []string{"result"})

// Source reads PokeAPI resources. *pokeapi.API implements it.
type Source interface {
	ListPokemon(ctx context.Context, limit, offset int) (*pokeapi.NamedResourceList, error)
	GetPokemon(ctx context.Context, idOrName string) (*pokeapi.Pokemon, error)
	GetAbility(ctx context.Context, idOrName string) (*pokeapi.Ability, error)
	GetMove(ctx context.Context, idOrName string) (*pokeapi.Move, error)
}

// CatalogConfig tunes list loading.
type CatalogConfig struct {
	PageSize       int
	MaxPageSize    int
	HydrateWorkers int
}

// DefaultCatalogConfig returns the grid defaults: 20 cards per page.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		PageSize:       20,
		MaxPageSize:    pokeapi.MaxListLimit,
		HydrateWorkers: 10,
	}
}

// PageRequest selects a window of the listing.
type PageRequest struct {
	Offset int
	Limit  int
	// Types keeps cards having any of these types. Empty keeps all.
	Types []string
}

// Page is one hydrated window of the listing.
type Page struct {
	Cards      []Card `json:"cards"`
	Total      int    `json:"total"`
	Offset     int    `json:"offset"`
	NextOffset int    `json:"next_offset"`
	HasMore    bool   `json:"has_more"`
}

// Catalog loads list pages and hydrates them with full records.
type Catalog struct {
	source  Source
	records *RecordCache
	config  CatalogConfig
	logger  zerolog.Logger
}

// NewCatalog creates a catalog reading from source and caching in records.
func NewCatalog(source Source, records *RecordCache, config CatalogConfig) *Catalog {
	defaults := DefaultCatalogConfig()
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.MaxPageSize <= 0 || config.MaxPageSize > pokeapi.MaxListLimit {
		config.MaxPageSize = defaults.MaxPageSize
	}
	if config.HydrateWorkers <= 0 {
		config.HydrateWorkers = defaults.HydrateWorkers
	}

	return &Catalog{
		source:  source,
		records: records,
		config:  config,
		logger:  logging.NewLogger("catalog"),
	}
}

// Records returns the record cache.
func (c *Catalog) Records() *RecordCache {
	return c.records
}

// Source returns the upstream resource reader.
func (c *Catalog) Source() Source {
	return c.source
}

// PageSize returns the default page size.
func (c *Catalog) PageSize() int {
	return c.config.PageSize
}

// Page loads a list window, hydrates every id not yet cached in parallel and
// returns the cards in listing order without duplicates. Any failed
// hydration fails the page.
func (c *Catalog) Page(ctx context.Context, req PageRequest) (*Page, error) {
	if req.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must be >= 0 (got %d)", ErrInvalidRequest, req.Offset)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = c.config.PageSize
	}
	limit = min(limit, c.config.MaxPageSize)

	list, err := c.source.ListPokemon(ctx, limit, req.Offset)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(list.Results))
	for _, item := range list.Results {
		id, err := pokeapi.IDFromURL(item.URL)
		if err != nil {
			c.logger.Warn().Err(err).Str("name", item.Name).Msg("Skipping list item without id")
			continue
		}
		ids = append(ids, id)
	}

	if err := c.Hydrate(ctx, ids); err != nil {
		return nil, err
	}

	page := &Page{
		Cards:      make([]Card, 0, len(ids)),
		Total:      list.Count,
		Offset:     req.Offset,
		NextOffset: req.Offset + len(list.Results),
	}
	page.HasMore = page.NextOffset < page.Total && len(list.Results) > 0

	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		p, ok := c.records.Get(id)
		if !ok {
			continue
		}
		if len(req.Types) > 0 && !p.HasType(req.Types...) {
			continue
		}
		page.Cards = append(page.Cards, NewCard(p))
	}

	c.logger.Debug().
		Int("offset", req.Offset).
		Int("limit", limit).
		Int("cards", len(page.Cards)).
		Int("total", page.Total).
		Msg("Page loaded")

	return page, nil
}

// Hydrate fetches the records for ids missing from the cache with bounded
// parallelism. The first failure cancels the remaining fetches.
func (c *Catalog) Hydrate(ctx context.Context, ids []int) error {
	missing := c.records.Missing(ids)
	hydrationsTotal.WithLabelValues("cached").Add(float64(len(ids) - len(missing)))
	if len(missing) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.HydrateWorkers)

	for _, id := range missing {
		g.Go(func() error {
			p, err := c.source.GetPokemon(gctx, strconv.Itoa(id))
			if err != nil {
				hydrationsTotal.WithLabelValues("failed").Inc()
				return fmt.Errorf("hydrate pokemon %d: %w", id, err)
			}
			c.records.Put(p)
			hydrationsTotal.WithLabelValues("fetched").Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Error().Err(err).Int("ids", len(missing)).Msg("Hydration failed")
		return err
	}
	return nil
}

// Record returns a single record by id or name, consulting the cache first.
func (c *Catalog) Record(ctx context.Context, idOrName string) (*pokeapi.Pokemon, error) {
	ident, err := pokeapi.NormalizeIdentifier(idOrName)
	if err != nil {
		return nil, err
	}

	if id, err := strconv.Atoi(ident); err == nil {
		if p, ok := c.records.Get(id); ok {
			hydrationsTotal.WithLabelValues("cached").Inc()
			return p, nil
		}
	} else if p, ok := c.records.GetByName(ident); ok {
		hydrationsTotal.WithLabelValues("cached").Inc()
		return p, nil
	}

	p, err := c.source.GetPokemon(ctx, ident)
	if err != nil {
		return nil, err
	}
	hydrationsTotal.WithLabelValues("fetched").Inc()
	return c.records.Put(p), nil
}
