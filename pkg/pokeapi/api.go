// Package pokeapi is a typed wrapper over the PokeAPI resources the Pokédex
// reads: the Pokémon listing, Pokémon, abilities and moves.
package pokeapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ArtworkBaseURL hosts the official artwork used for list cards.
const ArtworkBaseURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork"

// MaxListLimit bounds the limit of a single list request.
const MaxListLimit = 100

// ErrInvalidIdentifier is returned for ids or names PokeAPI cannot serve.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// JSONGetter fetches a path relative to the API root and decodes it.
// *client.Client implements it.
type JSONGetter interface {
	GetJSON(ctx context.Context, path string, v any) error
}

// API reads PokeAPI resources.
type API struct {
	getter JSONGetter
}

// New creates an API over getter.
func New(getter JSONGetter) *API {
	return &API{getter: getter}
}

// ListPokemon returns one page of the species listing.
func (a *API) ListPokemon(ctx context.Context, limit, offset int) (*NamedResourceList, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, fmt.Errorf("limit must be in 1..%d (got %d)", MaxListLimit, limit)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must be >= 0 (got %d)", offset)
	}

	var list NamedResourceList
	path := fmt.Sprintf("/pokemon/?limit=%d&offset=%d", limit, offset)
	if err := a.getter.GetJSON(ctx, path, &list); err != nil {
		return nil, fmt.Errorf("list pokemon: %w", err)
	}
	return &list, nil
}

// FetchPage implements pagination.PageFetcher over the species listing.
func (a *API) FetchPage(ctx context.Context, offset, limit int) ([]NamedAPIResource, int, error) {
	list, err := a.ListPokemon(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list.Results, list.Count, nil
}

// GetPokemon fetches a Pokémon by numeric id or name.
func (a *API) GetPokemon(ctx context.Context, idOrName string) (*Pokemon, error) {
	ident, err := NormalizeIdentifier(idOrName)
	if err != nil {
		return nil, err
	}

	var p Pokemon
	if err := a.getter.GetJSON(ctx, "/pokemon/"+ident, &p); err != nil {
		return nil, fmt.Errorf("get pokemon %s: %w", ident, err)
	}
	return &p, nil
}

// GetAbility fetches an ability by id or name.
func (a *API) GetAbility(ctx context.Context, idOrName string) (*Ability, error) {
	ident, err := NormalizeIdentifier(idOrName)
	if err != nil {
		return nil, err
	}

	var ab Ability
	if err := a.getter.GetJSON(ctx, "/ability/"+ident, &ab); err != nil {
		return nil, fmt.Errorf("get ability %s: %w", ident, err)
	}
	return &ab, nil
}

// GetMove fetches a move by id or name.
func (a *API) GetMove(ctx context.Context, idOrName string) (*Move, error) {
	ident, err := NormalizeIdentifier(idOrName)
	if err != nil {
		return nil, err
	}

	var m Move
	if err := a.getter.GetJSON(ctx, "/move/"+ident, &m); err != nil {
		return nil, fmt.Errorf("get move %s: %w", ident, err)
	}
	return &m, nil
}

// NormalizeIdentifier trims and lowercases an id or name and rejects
// anything outside [a-z0-9-] as well as non-positive ids.
func NormalizeIdentifier(s string) (string, error) {
	ident := strings.ToLower(strings.TrimSpace(s))
	if ident == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}

	for _, r := range ident {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
		}
	}

	if n, err := strconv.Atoi(ident); err == nil {
		if n <= 0 {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
		}
		return strconv.Itoa(n), nil
	}
	return ident, nil
}

// IDFromURL parses the numeric id from the last non-empty path segment of
// a resource URL such as https://pokeapi.co/api/v2/pokemon/25/.
func IDFromURL(rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parse resource url: %w", err)
	}

	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			continue
		}
		id, err := strconv.Atoi(segments[i])
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("%w: no id in %q", ErrInvalidIdentifier, rawURL)
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: no id in %q", ErrInvalidIdentifier, rawURL)
}

// ArtworkURL returns the official artwork image for a Pokémon id.
func ArtworkURL(id int) string {
	return fmt.Sprintf("%s/%d.png", ArtworkBaseURL, id)
}
