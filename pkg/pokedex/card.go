package pokedex

import (
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// Card is a grid entry.
type Card struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Number      string    `json:"number"`
	Types       []string  `json:"types"`
	Sprite      string    `json:"sprite"`
	Color       TypeColor `json:"color"`
}

// NewCard builds a card from a hydrated record. The sprite is the official
// artwork derived from the id.
func NewCard(p *pokeapi.Pokemon) Card {
	types := p.TypeNames()
	mainType := "normal"
	if len(types) > 0 {
		mainType = types[0]
	}

	return Card{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: FormatName(p.Name),
		Number:      FormatID(p.ID),
		Types:       types,
		Sprite:      pokeapi.ArtworkURL(p.ID),
		Color:       ColorFor(mainType),
	}
}
