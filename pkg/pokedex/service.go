package pokedex

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex/pkg/logging"
	"github.com/Sternrassler/pokedex/pkg/pagination"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// Config assembles the Pokédex components.
type Config struct {
	Catalog          CatalogConfig
	MoveBatchSize    int
	FeaturedIDs      []int
	RotationInterval time.Duration
	BuildNameIndex   bool
	NameIndexWorkers int
}

// DefaultConfig returns the defaults of every component.
func DefaultConfig() Config {
	return Config{
		Catalog:          DefaultCatalogConfig(),
		MoveBatchSize:    5,
		FeaturedIDs:      DefaultFeaturedIDs,
		RotationInterval: DefaultRotationInterval,
		BuildNameIndex:   true,
		NameIndexWorkers: 4,
	}
}

// Service bundles the components sharing one record cache.
type Service struct {
	Catalog  *Catalog
	Search   *Searcher
	Featured *Featured
	Rotator  *Rotator
	Details  *Details
	Names    *NameIndex

	api    *pokeapi.API
	config Config
	logger zerolog.Logger
}

// NewService wires the components over api.
func NewService(api *pokeapi.API, cfg Config) *Service {
	catalog := NewCatalog(api, NewRecordCache(), cfg.Catalog)
	names := NewNameIndex()
	featured := NewFeatured(catalog, cfg.FeaturedIDs)

	return &Service{
		Catalog:  catalog,
		Search:   NewSearcher(catalog, names),
		Featured: featured,
		Rotator:  NewRotator(len(featured.IDs()), cfg.RotationInterval),
		Details:  NewDetails(catalog, cfg.MoveBatchSize),
		Names:    names,
		api:      api,
		config:   cfg,
		logger:   logging.NewLogger("pokedex"),
	}
}

// Start runs the carousel rotator and, when enabled, builds the name index
// in the background. Both stop with ctx.
func (s *Service) Start(ctx context.Context) {
	go s.Rotator.Run(ctx)

	if !s.config.BuildNameIndex {
		return
	}

	go func() {
		start := time.Now()
		cfg := pagination.DefaultConfig()
		if s.config.NameIndexWorkers > 0 {
			cfg.MaxConcurrency = s.config.NameIndexWorkers
		}

		if err := s.Names.Build(ctx, s.api, cfg); err != nil {
			s.logger.Warn().Err(err).Int("names", s.Names.Len()).Msg("Name index incomplete - search will not short-circuit misses")
			return
		}
		s.logger.Info().
			Int("names", s.Names.Len()).
			Dur("duration", time.Since(start)).
			Msg("Name index built")
	}()
}

// NewFeed starts an infinite-scroll session filtered to types.
func (s *Service) NewFeed(types ...string) *Feed {
	return NewFeed(s.Catalog, types...)
}
