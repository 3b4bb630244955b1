package pokedex

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// DefaultFeaturedIDs are Pikachu, Charizard, Mewtwo, Dragonite and Bulbasaur.
var DefaultFeaturedIDs = []int{25, 6, 150, 149, 1}

// TopStat is one of a featured card's highest stats.
type TopStat struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// FeaturedCard is a carousel slide.
type FeaturedCard struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Number      string    `json:"number"`
	Types       string    `json:"types"`
	Gradient    string    `json:"gradient"`
	Sprite      string    `json:"sprite"`
	TopStats    []TopStat `json:"top_stats"`
	Height      string    `json:"height"`
	Weight      string    `json:"weight"`
	Abilities   []string  `json:"abilities"`
}

// NewFeaturedCard builds a slide: types joined by "/", a gradient by main
// type and the three highest base stats, highest first.
func NewFeaturedCard(p *pokeapi.Pokemon) FeaturedCard {
	types := p.TypeNames()
	gradient := FallbackGradient
	if len(types) > 0 {
		gradient = GradientFor(types[0])
	}

	sprite := p.Sprites.Other.OfficialArtwork.FrontDefault
	if sprite == "" {
		sprite = pokeapi.ArtworkURL(p.ID)
	}

	abilities := make([]string, 0, len(p.Abilities))
	for _, a := range p.Abilities {
		abilities = append(abilities, FormatName(a.Ability.Name))
	}

	return FeaturedCard{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: FormatName(p.Name),
		Number:      FormatID(p.ID),
		Types:       strings.Join(types, "/"),
		Gradient:    gradient,
		Sprite:      sprite,
		TopStats:    topStats(p.Stats, 3),
		Height:      FormatHeight(p.Height),
		Weight:      FormatWeight(p.Weight),
		Abilities:   abilities,
	}
}

// topStats returns the n highest stats in descending order. Ties keep
// their upstream order.
func topStats(stats []pokeapi.PokemonStat, n int) []TopStat {
	sorted := make([]pokeapi.PokemonStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BaseStat > sorted[j].BaseStat
	})

	out := make([]TopStat, 0, n)
	for _, s := range sorted[:min(n, len(sorted))] {
		color, ok := topStatColors[s.Stat.Name]
		if !ok {
			color = "#ffffff"
		}
		out = append(out, TopStat{
			Name:    s.Stat.Name,
			Label:   StatLabel(s.Stat.Name),
			Value:   s.BaseStat,
			Percent: min(100, float64(s.BaseStat)/150*100),
			Color:   color,
		})
	}
	return out
}

// Featured loads the carousel slides.
type Featured struct {
	catalog *Catalog
	ids     []int
}

// NewFeatured creates a loader for ids; DefaultFeaturedIDs when empty.
func NewFeatured(catalog *Catalog, ids []int) *Featured {
	if len(ids) == 0 {
		ids = DefaultFeaturedIDs
	}
	return &Featured{catalog: catalog, ids: ids}
}

// IDs returns the featured ids in carousel order.
func (f *Featured) IDs() []int {
	return append([]int(nil), f.ids...)
}

// Cards fetches every featured record in parallel and returns the slides in
// configured order.
func (f *Featured) Cards(ctx context.Context) ([]FeaturedCard, error) {
	cards := make([]FeaturedCard, len(f.ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range f.ids {
		g.Go(func() error {
			p, err := f.catalog.Record(gctx, strconv.Itoa(id))
			if err != nil {
				return fmt.Errorf("featured pokemon %d: %w", id, err)
			}
			cards[i] = NewFeaturedCard(p)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}
