package main

import (
	"github.com/spf13/cobra"

	"github.com/Sternrassler/pokedex/internal/server"
	"github.com/Sternrassler/pokedex/pkg/logging"
	"github.com/Sternrassler/pokedex/pkg/store"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Pokédex web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := logging.NewLogger("main")
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			logger.Info().Str("redis", cfg.Redis.Addr).Msg("Connected to Redis")

			prefs, err := store.Open(ctx, cfg.Store.Path)
			if err != nil {
				return err
			}
			defer prefs.Close()

			svc := a.service(cfg)
			svc.Start(ctx)

			srv, err := server.New(svc, a.client, prefs, server.Config{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			})
			if err != nil {
				return err
			}

			logger.Info().
				Str("addr", cfg.Server.Addr).
				Str("upstream", cfg.Upstream.BaseURL).
				Str("user_agent", cfg.Upstream.UserAgent).
				Msg("Pokédex ready")
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
