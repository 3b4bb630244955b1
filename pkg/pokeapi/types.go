package pokeapi

// NamedAPIResource references another resource by name and URL.
type NamedAPIResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// NamedResourceList is one page of a list endpoint.
type NamedResourceList struct {
	Count    int                `json:"count"`
	Next     *string            `json:"next"`
	Previous *string            `json:"previous"`
	Results  []NamedAPIResource `json:"results"`
}

// Pokemon is the /pokemon/{id} resource, reduced to the fields the Pokédex
// displays.
type Pokemon struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	BaseExperience int              `json:"base_experience"`
	Height         int              `json:"height"` // decimetres
	Weight         int              `json:"weight"` // hectograms
	Types          []PokemonType    `json:"types"`
	Sprites        Sprites          `json:"sprites"`
	Stats          []PokemonStat    `json:"stats"`
	Abilities      []PokemonAbility `json:"abilities"`
	Moves          []PokemonMove    `json:"moves"`
}

// TypeNames returns the type names in slot order.
func (p *Pokemon) TypeNames() []string {
	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		names = append(names, t.Type.Name)
	}
	return names
}

// HasType reports whether the Pokémon has any of the given types.
func (p *Pokemon) HasType(types ...string) bool {
	for _, t := range p.Types {
		for _, want := range types {
			if t.Type.Name == want {
				return true
			}
		}
	}
	return false
}

// PokemonType is one type slot.
type PokemonType struct {
	Slot int              `json:"slot"`
	Type NamedAPIResource `json:"type"`
}

// Sprites holds sprite image URLs; absent sprites are empty strings.
type Sprites struct {
	FrontDefault string       `json:"front_default"`
	BackDefault  string       `json:"back_default"`
	FrontShiny   string       `json:"front_shiny"`
	BackShiny    string       `json:"back_shiny"`
	Other        OtherSprites `json:"other"`
}

// OtherSprites holds artwork beyond the game sprites.
type OtherSprites struct {
	OfficialArtwork struct {
		FrontDefault string `json:"front_default"`
	} `json:"official-artwork"`
}

// PokemonStat is one base stat.
type PokemonStat struct {
	BaseStat int              `json:"base_stat"`
	Effort   int              `json:"effort"`
	Stat     NamedAPIResource `json:"stat"`
}

// PokemonAbility is an ability a Pokémon may have.
type PokemonAbility struct {
	Ability  NamedAPIResource `json:"ability"`
	IsHidden bool             `json:"is_hidden"`
	Slot     int              `json:"slot"`
}

// PokemonMove is a move a Pokémon can learn.
type PokemonMove struct {
	Move                NamedAPIResource     `json:"move"`
	VersionGroupDetails []VersionGroupDetail `json:"version_group_details"`
}

// VersionGroupDetail describes how a move is learned in a version group.
type VersionGroupDetail struct {
	LevelLearnedAt  int              `json:"level_learned_at"`
	MoveLearnMethod NamedAPIResource `json:"move_learn_method"`
	VersionGroup    NamedAPIResource `json:"version_group"`
}

// Ability is the /ability/{name} resource.
type Ability struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	EffectEntries []VerboseEffect  `json:"effect_entries"`
	Pokemon       []AbilityPokemon `json:"pokemon"`
}

// Effect returns the effect text in lang, or "" when there is none.
func (a *Ability) Effect(lang string) string {
	for _, e := range a.EffectEntries {
		if e.Language.Name == lang {
			return e.Effect
		}
	}
	return ""
}

// VerboseEffect is a localized effect description.
type VerboseEffect struct {
	Effect      string           `json:"effect"`
	ShortEffect string           `json:"short_effect"`
	Language    NamedAPIResource `json:"language"`
}

// AbilityPokemon is a Pokémon holding an ability.
type AbilityPokemon struct {
	IsHidden bool             `json:"is_hidden"`
	Slot     int              `json:"slot"`
	Pokemon  NamedAPIResource `json:"pokemon"`
}

// Move is the /move/{name} resource. Power, PP and Accuracy are null for
// some moves.
type Move struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Type        NamedAPIResource `json:"type"`
	Power       *int             `json:"power"`
	PP          *int             `json:"pp"`
	Accuracy    *int             `json:"accuracy"`
	DamageClass NamedAPIResource `json:"damage_class"`
}
