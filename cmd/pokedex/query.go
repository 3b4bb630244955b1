package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/pokedex/pkg/pokedex"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCards(w io.Writer, cards []pokedex.Card) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tTYPES")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Number, c.DisplayName, strings.Join(c.Types, "/"))
	}
	return tw.Flush()
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id|name>",
		Short: "Show one Pokémon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.service(cfg).Details.View(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", pokedex.MsgDetailFailed, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, view)
			}

			types := make([]string, 0, len(view.Types))
			for _, t := range view.Types {
				types = append(types, t.Label)
			}
			fmt.Fprintf(out, "%s %s\n", view.Number, view.DisplayName)
			fmt.Fprintf(out, "Types:  %s\n", strings.Join(types, ", "))
			fmt.Fprintf(out, "Height: %s  Weight: %s\n", view.Height, view.Weight)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, s := range view.Stats {
				fmt.Fprintf(tw, "%s\t%d\n", s.Label, s.Value)
			}
			fmt.Fprintf(tw, "total\t%d\n", view.StatTotal)
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		offset int
		limit  int
		types  []string
		all    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of Pokémon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range types {
				if !pokedex.IsKnownType(t) {
					return fmt.Errorf("unknown type %q", t)
				}
			}

			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := a.service(cfg)
			out := cmd.OutOrStdout()

			if all {
				snap, err := loadAll(cmd.Context(), svc.NewFeed(types...))
				if err != nil {
					return fmt.Errorf("%s: %w", pokedex.MsgListFailed, err)
				}
				if asJSON {
					return writeJSON(out, snap)
				}
				if err := writeCards(out, snap.Cards); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d shown, %d listed\n", len(snap.Cards), snap.Total)
				return nil
			}

			page, err := svc.Catalog.Page(cmd.Context(), pokedex.PageRequest{
				Offset: offset,
				Limit:  limit,
				Types:  types,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", pokedex.MsgListFailed, err)
			}

			if asJSON {
				return writeJSON(out, page)
			}
			if err := writeCards(out, page.Cards); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d-%d of %d\n", page.Offset+1, page.NextOffset, page.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "list offset")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size (max 100)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "keep only these types")
	cmd.Flags().BoolVar(&all, "all", false, "page through the whole listing (ignores --offset and --limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// loadAll pages a feed until the listing is exhausted.
func loadAll(ctx context.Context, feed *pokedex.Feed) (pokedex.FeedSnapshot, error) {
	for {
		err := feed.LoadMore(ctx)
		if errors.Is(err, pokedex.ErrExhausted) {
			return feed.Snapshot(), nil
		}
		if err != nil {
			return feed.Snapshot(), err
		}
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Look up a Pokémon by full name or number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			card, err := a.service(cfg).Search.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeCards(cmd.OutOrStdout(), []pokedex.Card{card})
		},
	}
	return cmd
}
