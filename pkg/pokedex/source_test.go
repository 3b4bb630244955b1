package pokedex

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Sternrassler/pokedex/pkg/client"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

// fakeSource serves an in-memory roster of total Pokémon.
type fakeSource struct {
	mu        sync.Mutex
	total     int
	pokemon   map[int]*pokeapi.Pokemon
	abilities map[string]*pokeapi.Ability
	moves     map[string]*pokeapi.Move

	listCalls int
	getCalls  map[string]int
	failGet   map[string]error
	failMove  map[string]error
	listErr   error
	listGate  chan struct{}
	// listIDs overrides the ids returned for an offset.
	listIDs map[int][]int
}

func stat(name string, v int) pokeapi.PokemonStat {
	return pokeapi.PokemonStat{BaseStat: v, Stat: pokeapi.NamedAPIResource{Name: name}}
}

func makePokemon(id int, name string, stats [6]int, types ...string) *pokeapi.Pokemon {
	p := &pokeapi.Pokemon{ID: id, Name: name, Height: 7, Weight: 69, BaseExperience: 64}
	for i, t := range types {
		p.Types = append(p.Types, pokeapi.PokemonType{Slot: i + 1, Type: pokeapi.NamedAPIResource{Name: t}})
	}
	for i, n := range []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"} {
		p.Stats = append(p.Stats, stat(n, stats[i]))
	}
	return p
}

func newFakeSource(total int) *fakeSource {
	s := &fakeSource{
		total:     total,
		pokemon:   make(map[int]*pokeapi.Pokemon),
		abilities: make(map[string]*pokeapi.Ability),
		moves:     make(map[string]*pokeapi.Move),
		getCalls:  make(map[string]int),
		failGet:   make(map[string]error),
		failMove:  make(map[string]error),
		listIDs:   make(map[int][]int),
	}
	for id := 1; id <= total; id++ {
		s.pokemon[id] = makePokemon(id, fmt.Sprintf("pokemon-%d", id), [6]int{50, 50, 50, 50, 50, 50}, "normal")
	}
	return s
}

func (s *fakeSource) add(p *pokeapi.Pokemon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pokemon[p.ID] = p
}

func (s *fakeSource) calls(ident string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls[ident]
}

func (s *fakeSource) lists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *fakeSource) ListPokemon(ctx context.Context, limit, offset int) (*pokeapi.NamedResourceList, error) {
	s.mu.Lock()
	s.listCalls++
	gate := s.listGate
	err := s.listErr
	override, hasOverride := s.listIDs[offset]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	ids := override
	if !hasOverride {
		for id := offset + 1; id <= offset+limit && id <= s.total; id++ {
			ids = append(ids, id)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := &pokeapi.NamedResourceList{Count: s.total}
	for _, id := range ids {
		name := fmt.Sprintf("pokemon-%d", id)
		if p, ok := s.pokemon[id]; ok {
			name = p.Name
		}
		list.Results = append(list.Results, pokeapi.NamedAPIResource{
			Name: name,
			URL:  fmt.Sprintf("https://pokeapi.co/api/v2/pokemon/%d/", id),
		})
	}
	return list, nil
}

func (s *fakeSource) GetPokemon(_ context.Context, idOrName string) (*pokeapi.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls[idOrName]++

	if err := s.failGet[idOrName]; err != nil {
		return nil, err
	}
	if id, err := strconv.Atoi(idOrName); err == nil {
		if p, ok := s.pokemon[id]; ok {
			return p, nil
		}
		return nil, fmt.Errorf("get pokemon %s: %w", idOrName, client.ErrNotFound)
	}
	for _, p := range s.pokemon {
		if p.Name == idOrName {
			return p, nil
		}
	}
	return nil, fmt.Errorf("get pokemon %s: %w", idOrName, client.ErrNotFound)
}

func (s *fakeSource) GetAbility(_ context.Context, idOrName string) (*pokeapi.Ability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.abilities[idOrName]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("get ability %s: %w", idOrName, client.ErrNotFound)
}

func (s *fakeSource) GetMove(_ context.Context, idOrName string) (*pokeapi.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls["move:"+idOrName]++
	if err := s.failMove[idOrName]; err != nil {
		return nil, err
	}
	if m, ok := s.moves[idOrName]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("get move %s: %w", idOrName, client.ErrNotFound)
}

func newTestCatalog(src *fakeSource) *Catalog {
	return NewCatalog(src, NewRecordCache(), DefaultCatalogConfig())
}

func intPtr(v int) *int { return &v }
