package pokedex

import (
	"context"
	"errors"
	"strings"

	"github.com/Sternrassler/pokedex/pkg/client"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// Searcher resolves search terms to single records.
type Searcher struct {
	catalog *Catalog
	index   *NameIndex
}

// NewSearcher creates a searcher. index may be nil, in which case every
// term goes upstream.
func NewSearcher(catalog *Catalog, index *NameIndex) *Searcher {
	return &Searcher{catalog: catalog, index: index}
}

// Search looks up a Pokémon by full name or numeric id. A blank term returns
// ErrEmptyQuery, a miss *NotFoundError and any other failure wraps
// ErrSearchFailed.
func (s *Searcher) Search(ctx context.Context, term string) (Card, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return Card{}, ErrEmptyQuery
	}

	query := strings.ToLower(trimmed)
	if _, err := pokeapi.NormalizeIdentifier(query); err != nil {
		return Card{}, &NotFoundError{Term: trimmed, Err: err}
	}

	if s.index != nil && !isNumeric(query) && !s.index.MayExist(query) {
		return Card{}, &NotFoundError{Term: trimmed, Err: client.ErrNotFound}
	}

	p, err := s.catalog.Record(ctx, query)
	switch {
	case err == nil:
		return NewCard(p), nil
	case errors.Is(err, client.ErrNotFound):
		return Card{}, &NotFoundError{Term: trimmed, Err: err}
	default:
		return Card{}, errors.Join(ErrSearchFailed, err)
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
