// Command pokedex serves the Pokédex web application and queries PokeAPI
// from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/pokedex/pkg/config"
	"github.com/Sternrassler/pokedex/pkg/logging"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pokedex",
		Short: "Pokédex server and PokeAPI browser",
		Long: `Pokédex serves a browsable catalogue of every Pokémon backed by PokeAPI.

Available commands:
  serve  - Run the web server
  get    - Show one Pokémon by id or name
  list   - List a page of Pokémon
  search - Look up a Pokémon by full name or number`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "pokedex.yaml", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-readable console logs")

	cmd.AddCommand(
		newServeCmd(opts),
		newGetCmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
	)
	return cmd
}

// loadConfig reads the config file and applies the logging flags.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = logging.LogLevel(o.logLevel)
	}
	if o.pretty {
		cfg.Logging.Pretty = true
	}
	cfg.Logging.Output = cmd.ErrOrStderr()
	logging.Setup(cfg.Logging)
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
