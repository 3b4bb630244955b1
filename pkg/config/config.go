// Package config loads the Pokédex server configuration from a YAML file,
// an optional .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/pokedex/pkg/logging"
)

// Config holds all server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Redis    RedisConfig    `yaml:"redis"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Featured FeaturedConfig `yaml:"featured"`
	Store    StoreConfig    `yaml:"store"`
	Logging  logging.Config `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig configures the PokeAPI client.
type UpstreamConfig struct {
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	RequestBudget  int           `yaml:"request_budget"` // requests per minute
	MaxBudgetWait  time.Duration `yaml:"max_budget_wait"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// RedisConfig configures the shared response cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CatalogConfig configures list loading and hydration.
type CatalogConfig struct {
	PageSize         int  `yaml:"page_size"`
	MaxPageSize      int  `yaml:"max_page_size"`
	HydrateWorkers   int  `yaml:"hydrate_workers"`
	MoveBatchSize    int  `yaml:"move_batch_size"`
	BuildNameIndex   bool `yaml:"build_name_index"`
	NameIndexWorkers int  `yaml:"name_index_workers"`
}

// FeaturedConfig configures the home page carousel.
type FeaturedConfig struct {
	IDs      []int         `yaml:"ids"`
	Interval time.Duration `yaml:"interval"`
}

// StoreConfig configures the preferences database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:        "https://pokeapi.co/api/v2",
			UserAgent:      "pokedex-server/0.1.0",
			Timeout:        30 * time.Second,
			RequestBudget:  600,
			MaxBudgetWait:  time.Minute,
			MaxRetries:     3,
			InitialBackoff: 500 * time.Millisecond,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Catalog: CatalogConfig{
			PageSize:         20,
			MaxPageSize:      100,
			HydrateWorkers:   10,
			MoveBatchSize:    5,
			BuildNameIndex:   true,
			NameIndexWorkers: 4,
		},
		Featured: FeaturedConfig{
			IDs:      []int{25, 6, 150, 149, 1},
			Interval: 7 * time.Second,
		},
		Store: StoreConfig{
			Path: "pokedex.db",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads the YAML file at path (missing file means defaults), loads a
// .env file from the working directory if present, and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("POKEDEX_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("POKEAPI_BASE_URL"); v != "" {
		c.Upstream.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("USER_AGENT"); v != "" {
		c.Upstream.UserAgent = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = logging.LogLevel(v)
	}
	if v := os.Getenv("POKEDEX_DB"); v != "" {
		c.Store.Path = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.UserAgent == "" {
		return fmt.Errorf("upstream.user_agent is required")
	}
	if c.Upstream.RequestBudget < 10 {
		return fmt.Errorf("upstream.request_budget must be >= 10 (got %d)", c.Upstream.RequestBudget)
	}
	if c.Upstream.MaxBudgetWait < 0 {
		return fmt.Errorf("upstream.max_budget_wait must be >= 0")
	}
	if c.Catalog.PageSize <= 0 || c.Catalog.PageSize > c.Catalog.MaxPageSize {
		return fmt.Errorf("catalog.page_size must be in 1..%d (got %d)", c.Catalog.MaxPageSize, c.Catalog.PageSize)
	}
	if c.Catalog.HydrateWorkers <= 0 {
		return fmt.Errorf("catalog.hydrate_workers must be > 0")
	}
	if c.Featured.Interval <= 0 {
		return fmt.Errorf("featured.interval must be > 0")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}
