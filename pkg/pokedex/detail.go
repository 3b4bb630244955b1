package pokedex

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// Detail page tabs.
const (
	TabStats     = "stats"
	TabAbilities = "abilities"
	TabMoves     = "moves"
)

// MaxStat is the highest possible base stat; bars are drawn against it.
const MaxStat = 255

const (
	abilityHolderLimit = 6
	otherHolderLimit   = 5
)

// Missing is shown for moves without power or accuracy.
const Missing = "—"

// ValidTab reports whether tab names a detail tab.
func ValidTab(tab string) bool {
	return tab == TabStats || tab == TabAbilities || tab == TabMoves
}

// Sprite is one gallery image.
type Sprite struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// StatBar is one row of the stats tab.
type StatBar struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
}

// TypeBadge is a coloured type tag.
type TypeBadge struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Class string `json:"class"`
}

// DetailView is the header and stats tab of a detail page. Abilities and
// moves are hydrated separately.
type DetailView struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Number      string           `json:"number"`
	Artwork     string           `json:"artwork"`
	Color       TypeColor        `json:"color"`
	Types       []TypeBadge      `json:"types"`
	Height      string           `json:"height"`
	Weight      string           `json:"weight"`
	BaseExp     int              `json:"base_experience"`
	Sprites     []Sprite         `json:"sprites"`
	Stats       []StatBar        `json:"stats"`
	StatTotal   int              `json:"stat_total"`
	Abilities   []AbilitySummary `json:"abilities"`
}

// AbilitySummary is an ability as listed in the header.
type AbilitySummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Hidden      bool   `json:"hidden"`
}

// NewDetailView builds the view of a record.
func NewDetailView(p *pokeapi.Pokemon) *DetailView {
	types := p.TypeNames()
	mainType := "normal"
	if len(types) > 0 {
		mainType = types[0]
	}

	artwork := p.Sprites.Other.OfficialArtwork.FrontDefault
	if artwork == "" {
		artwork = p.Sprites.FrontDefault
	}

	v := &DetailView{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: FormatName(p.Name),
		Number:      FormatID(p.ID),
		Artwork:     artwork,
		Color:       ColorFor(mainType),
		Height:      FormatHeight(p.Height),
		Weight:      FormatWeight(p.Weight),
		BaseExp:     p.BaseExperience,
		Sprites:     spriteGallery(p.Sprites),
	}

	for _, t := range types {
		v.Types = append(v.Types, TypeBadge{Name: t, Label: FormatName(t), Class: BadgeClass(t)})
	}

	for _, s := range p.Stats {
		v.Stats = append(v.Stats, StatBar{
			Name:    s.Stat.Name,
			Label:   StatLabel(s.Stat.Name),
			Value:   s.BaseStat,
			Percent: min(100, float64(s.BaseStat)/MaxStat*100),
		})
		v.StatTotal += s.BaseStat
	}

	for _, a := range p.Abilities {
		v.Abilities = append(v.Abilities, AbilitySummary{
			Name:        a.Ability.Name,
			DisplayName: FormatName(a.Ability.Name),
			Hidden:      a.IsHidden,
		})
	}

	return v
}

func spriteGallery(s pokeapi.Sprites) []Sprite {
	candidates := []Sprite{
		{Label: "Front", URL: s.FrontDefault},
		{Label: "Back", URL: s.BackDefault},
		{Label: "Shiny", URL: s.FrontShiny},
		{Label: "Shiny Back", URL: s.BackShiny},
	}
	gallery := make([]Sprite, 0, len(candidates))
	for _, c := range candidates {
		if c.URL != "" {
			gallery = append(gallery, c)
		}
	}
	return gallery
}

// AbilityDetail is one card of the abilities tab.
type AbilityDetail struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Hidden      bool     `json:"hidden"`
	Loaded      bool     `json:"loaded"`
	Description string   `json:"description,omitempty"`
	Others      []string `json:"others"`
	MoreCount   int      `json:"more_count"`
}

// More renders the overflow tag, "+N more", or "" when there is none.
func (a AbilityDetail) More() string {
	if a.MoreCount <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", a.MoreCount)
}

// MoveRow is one row of the moves table. Without details only Name and
// Method are set.
type MoveRow struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Method      string `json:"method"`
	Loaded      bool   `json:"loaded"`
	Type        string `json:"type,omitempty"`
	TypeClass   string `json:"type_class,omitempty"`
	Category    string `json:"category,omitempty"`
	Power       string `json:"power,omitempty"`
	PP          string `json:"pp,omitempty"`
	Accuracy    string `json:"accuracy,omitempty"`
}

// Details builds detail views and hydrates their tabs.
type Details struct {
	catalog       *Catalog
	moveBatchSize int
}

// NewDetails creates a detail builder hydrating moves moveBatchSize at a
// time; 5 when <= 0.
func NewDetails(catalog *Catalog, moveBatchSize int) *Details {
	if moveBatchSize <= 0 {
		moveBatchSize = 5
	}
	return &Details{catalog: catalog, moveBatchSize: moveBatchSize}
}

// View returns the detail view of a Pokémon by id or name.
func (d *Details) View(ctx context.Context, idOrName string) (*DetailView, error) {
	p, err := d.catalog.Record(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return NewDetailView(p), nil
}

// Abilities hydrates every ability of a Pokémon in parallel. An ability
// whose fetch fails is kept with Loaded false.
func (d *Details) Abilities(ctx context.Context, idOrName string) ([]AbilityDetail, error) {
	p, err := d.catalog.Record(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	out := make([]AbilityDetail, len(p.Abilities))
	var wg sync.WaitGroup
	for i, a := range p.Abilities {
		out[i] = AbilityDetail{
			Name:        a.Ability.Name,
			DisplayName: FormatName(a.Ability.Name),
			Hidden:      a.IsHidden,
			Others:      []string{},
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			ab, err := d.catalog.source.GetAbility(ctx, resourceRef(a.Ability))
			if err != nil {
				d.catalog.logger.Warn().Err(err).Str("ability", a.Ability.Name).Msg("Failed to fetch ability details")
				return
			}
			fillAbility(&out[i], ab, p.Name)
		}()
	}
	wg.Wait()

	return out, nil
}

func fillAbility(detail *AbilityDetail, ab *pokeapi.Ability, self string) {
	detail.Loaded = true
	detail.Description = ab.Effect("en")
	if detail.Description == "" {
		detail.Description = MsgNoDescription
	}

	holders := ab.Pokemon[:min(abilityHolderLimit, len(ab.Pokemon))]
	for _, h := range holders {
		if h.Pokemon.Name == self {
			continue
		}
		if len(detail.Others) == otherHolderLimit {
			break
		}
		detail.Others = append(detail.Others, FormatName(h.Pokemon.Name))
	}
	if len(ab.Pokemon) > abilityHolderLimit {
		detail.MoreCount = len(ab.Pokemon) - abilityHolderLimit
	}
}

// Moves hydrates every move of a Pokémon, moveBatchSize requests at a
// time. A move whose fetch fails keeps its row without details.
func (d *Details) Moves(ctx context.Context, idOrName string) ([]MoveRow, error) {
	p, err := d.catalog.Record(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	rows := make([]MoveRow, len(p.Moves))
	for i, m := range p.Moves {
		rows[i] = MoveRow{
			Name:        m.Move.Name,
			DisplayName: FormatName(m.Move.Name),
			Method:      MethodText(m.VersionGroupDetails),
		}
	}

	for start := 0; start < len(p.Moves); start += d.moveBatchSize {
		if err := ctx.Err(); err != nil {
			return rows, err
		}

		end := min(start+d.moveBatchSize, len(p.Moves))
		var g errgroup.Group
		for i := start; i < end; i++ {
			ref := p.Moves[i].Move
			g.Go(func() error {
				mv, err := d.catalog.source.GetMove(ctx, resourceRef(ref))
				if err != nil {
					d.catalog.logger.Warn().Err(err).Str("move", ref.Name).Msg("Failed to fetch move details")
					return nil
				}
				fillMove(&rows[i], mv)
				return nil
			})
		}
		_ = g.Wait()
	}

	return rows, nil
}

func fillMove(row *MoveRow, mv *pokeapi.Move) {
	row.Loaded = true
	row.Type = mv.Type.Name
	row.TypeClass = BadgeClass(mv.Type.Name)
	row.Category = FormatName(mv.DamageClass.Name)
	row.Power = nonZeroInt(mv.Power, "")
	row.PP = optionalInt(mv.PP, "")
	row.Accuracy = nonZeroInt(mv.Accuracy, "%")
}

func optionalInt(v *int, suffix string) string {
	if v == nil {
		return Missing
	}
	return strconv.Itoa(*v) + suffix
}

// nonZeroInt is optionalInt with 0 also shown as missing; status moves
// report power and accuracy as null or 0.
func nonZeroInt(v *int, suffix string) string {
	if v == nil || *v == 0 {
		return Missing
	}
	return optionalInt(v, suffix)
}

// MethodText describes how a move is learned from its first version group
// detail: "Level N" for level-up, the formatted method otherwise.
func MethodText(details []pokeapi.VersionGroupDetail) string {
	if len(details) == 0 {
		return "Unknown"
	}
	first := details[0]
	if first.MoveLearnMethod.Name == "level-up" {
		return fmt.Sprintf("Level %d", first.LevelLearnedAt)
	}
	return FormatName(first.MoveLearnMethod.Name)
}

// resourceRef prefers the id in a resource URL and falls back to the name.
func resourceRef(r pokeapi.NamedAPIResource) string {
	if id, err := pokeapi.IDFromURL(r.URL); err == nil {
		return strconv.Itoa(id)
	}
	return r.Name
}
