package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/pokedex/pkg/client"
	"github.com/Sternrassler/pokedex/pkg/config"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
	"github.com/Sternrassler/pokedex/pkg/pokedex"
)

// app holds the components shared by the commands.
type app struct {
	redis  *redis.Client
	client *client.Client
	api    *pokeapi.API
}

// newRedis connects to Redis. addr is either host:port or a redis:// URL.
func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(cfg.Addr, "://") {
		parsed, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.Addr, DB: cfg.DB}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// newApp connects to Redis and builds the PokeAPI client.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	rdb, err := newRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	ccfg := client.DefaultConfig(rdb, cfg.Upstream.UserAgent)
	ccfg.BaseURL = cfg.Upstream.BaseURL
	ccfg.Timeout = cfg.Upstream.Timeout
	ccfg.RequestBudget = cfg.Upstream.RequestBudget
	ccfg.MaxBudgetWait = cfg.Upstream.MaxBudgetWait
	ccfg.MaxRetries = cfg.Upstream.MaxRetries
	ccfg.InitialBackoff = cfg.Upstream.InitialBackoff

	c, err := client.New(ccfg)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("create pokeapi client: %w", err)
	}

	return &app{redis: rdb, client: c, api: pokeapi.New(c)}, nil
}

// service builds the Pokédex components from the configuration.
func (a *app) service(cfg *config.Config) *pokedex.Service {
	return pokedex.NewService(a.api, serviceConfig(cfg))
}

func serviceConfig(cfg *config.Config) pokedex.Config {
	return pokedex.Config{
		Catalog: pokedex.CatalogConfig{
			PageSize:       cfg.Catalog.PageSize,
			MaxPageSize:    cfg.Catalog.MaxPageSize,
			HydrateWorkers: cfg.Catalog.HydrateWorkers,
		},
		MoveBatchSize:    cfg.Catalog.MoveBatchSize,
		FeaturedIDs:      cfg.Featured.IDs,
		RotationInterval: cfg.Featured.Interval,
		BuildNameIndex:   cfg.Catalog.BuildNameIndex,
		NameIndexWorkers: cfg.Catalog.NameIndexWorkers,
	}
}

func (a *app) Close() error {
	a.client.Close()
	return a.redis.Close()
}
