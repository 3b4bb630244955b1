// Package server exposes the Pokédex over HTTP: server-rendered pages, the
// JSON API used by the infinite-scroll script and the featured carousel
// websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex/pkg/logging"
	"github.com/Sternrassler/pokedex/pkg/metrics"
	"github.com/Sternrassler/pokedex/pkg/pokedex"
	"github.com/Sternrassler/pokedex/pkg/store"
)

// Pinger reports whether a dependency is reachable. *client.Client and
// *store.Store implement it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// SuggestLimit caps /api/suggest results.
	SuggestLimit int
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// DefaultConfig returns the listener defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SuggestLimit:    8,
	}
}

// Server is the Pokédex HTTP server.
type Server struct {
	engine   *gin.Engine
	svc      *pokedex.Service
	upstream Pinger
	prefs    *store.Store
	config   Config
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// New builds the router. upstream is checked by /ready.
func New(svc *pokedex.Service, upstream Pinger, prefs *store.Store, cfg Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("pokedex service is required")
	}
	if upstream == nil {
		return nil, fmt.Errorf("upstream pinger is required")
	}
	if prefs == nil {
		return nil, fmt.Errorf("preferences store is required")
	}
	if cfg.SuggestLimit <= 0 {
		cfg.SuggestLimit = DefaultConfig().SuggestLimit
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)

	s := &Server{
		engine:   engine,
		svc:      svc,
		upstream: upstream,
		prefs:    prefs,
		config:   cfg,
		logger:   logging.NewLogger("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	engine.Use(s.requestLogger(), s.recovery())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/", s.home)
	s.engine.GET("/pokemon/:id", s.detailPage)
	s.engine.GET("/partials/cards", s.cardsPartial)

	api := s.engine.Group("/api")
	{
		api.GET("/pokemon", s.listPokemon)
		api.GET("/pokemon/:id", s.getPokemon)
		api.GET("/pokemon/:id/abilities", s.getAbilities)
		api.GET("/pokemon/:id/moves", s.getMoves)
		api.GET("/search", s.search)
		api.GET("/suggest", s.suggest)
		api.GET("/featured", s.featured)
		api.GET("/preferences", s.getPreferences)
		api.PUT("/preferences", s.putPreferences)
	}

	s.engine.GET("/ws/featured", s.featuredSocket)

	s.engine.GET("/health", s.health)
	s.engine.GET("/ready", s.ready)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.engine.NoRoute(func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound, "Page Not Found", "There is nothing at this address.")
	})
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting Pokédex server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down Pokédex server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"redis": "ok", "store": "ok"}
	status := http.StatusOK

	if err := s.upstream.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed: redis")
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := s.prefs.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness check failed: store")
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, checks)
}
