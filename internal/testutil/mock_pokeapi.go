// Package testutil provides test doubles for PokeAPI and Redis.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// APIPrefix is the path under which the mock serves resources, mirroring
// https://pokeapi.co/api/v2.
const APIPrefix = "/api/v2"

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Species describes one Pokémon served by the mock.
type Species struct {
	ID        int
	Name      string
	Types     []string
	Stats     [6]int // hp, attack, defense, special-attack, special-defense, speed
	Abilities []string
	Hidden    string
	Moves     []string
}

// DefaultSpecies is the roster served unless overridden. Ids not listed are
// generated as "pokemon-<id>" of type normal.
var DefaultSpecies = []Species{
	{ID: 1, Name: "bulbasaur", Types: []string{"grass", "poison"}, Stats: [6]int{45, 49, 49, 65, 65, 45}, Abilities: []string{"overgrow"}, Hidden: "chlorophyll", Moves: []string{"tackle", "vine-whip"}},
	{ID: 4, Name: "charmander", Types: []string{"fire"}, Stats: [6]int{39, 52, 43, 60, 50, 65}, Abilities: []string{"blaze"}, Hidden: "solar-power", Moves: []string{"scratch", "ember"}},
	{ID: 6, Name: "charizard", Types: []string{"fire", "flying"}, Stats: [6]int{78, 84, 78, 109, 85, 100}, Abilities: []string{"blaze"}, Hidden: "solar-power", Moves: []string{"scratch", "ember", "flamethrower", "fly", "slash", "dragon-claw"}},
	{ID: 7, Name: "squirtle", Types: []string{"water"}, Stats: [6]int{44, 48, 65, 50, 64, 43}, Abilities: []string{"torrent"}, Hidden: "rain-dish", Moves: []string{"tackle", "water-gun"}},
	{ID: 25, Name: "pikachu", Types: []string{"electric"}, Stats: [6]int{35, 55, 40, 50, 50, 90}, Abilities: []string{"static"}, Hidden: "lightning-rod", Moves: []string{"thunder-shock", "quick-attack", "thunderbolt"}},
	{ID: 149, Name: "dragonite", Types: []string{"dragon", "flying"}, Stats: [6]int{91, 134, 95, 100, 100, 80}, Abilities: []string{"inner-focus"}, Hidden: "multiscale", Moves: []string{"dragon-claw", "fly"}},
	{ID: 150, Name: "mewtwo", Types: []string{"psychic"}, Stats: [6]int{106, 110, 90, 154, 90, 130}, Abilities: []string{"pressure"}, Hidden: "unnerve", Moves: []string{"psychic", "swift"}},
}

var statNames = [6]string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"}

// MockPokeAPI is a configurable PokeAPI stand-in.
type MockPokeAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	handlers  map[string]func(w http.ResponseWriter, r *http.Request)
	species   map[int]Species
	byName    map[string]int
	count     int
	failures  map[string][]int
	requests  map[string]int
	total     int
	lastReqHd http.Header
}

// NewMockPokeAPI starts a mock serving count Pokémon (ids 1..count).
func NewMockPokeAPI(count int) *MockPokeAPI {
	m := &MockPokeAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		species:  make(map[int]Species),
		byName:   make(map[string]int),
		count:    count,
		failures: make(map[string][]int),
		requests: make(map[string]int),
	}
	for _, s := range DefaultSpecies {
		m.AddSpecies(s)
	}

	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the server root.
func (m *MockPokeAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API base, the equivalent of https://pokeapi.co/api/v2.
func (m *MockPokeAPI) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the server.
func (m *MockPokeAPI) Close() {
	m.server.Close()
}

// AddSpecies registers or replaces a Pokémon.
func (m *MockPokeAPI) AddSpecies(s Species) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.species[s.ID] = s
	m.byName[s.Name] = s.ID
}

// SetHandler overrides the handler for an exact path (including APIPrefix).
func (m *MockPokeAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockPokeAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// FailNext makes the next len(statuses) requests to path answer with the
// given status codes, in order, before normal service resumes.
func (m *MockPokeAPI) FailNext(path string, statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = append(m.failures[path], statuses...)
}

// RequestCount returns the number of requests made to path, or to all paths
// when path is empty.
func (m *MockPokeAPI) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return m.total
	}
	return m.requests[path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockPokeAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReqHd
}

// Reset clears the request counters.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]int)
	m.total = 0
}

func (m *MockPokeAPI) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")

	m.mu.Lock()
	m.requests[path]++
	m.total++
	m.lastReqHd = r.Header.Clone()
	var failStatus int
	if queue := m.failures[path]; len(queue) > 0 {
		failStatus = queue[0]
		m.failures[path] = queue[1:]
	}
	handler, custom := m.handlers[path]
	m.mu.Unlock()

	if failStatus != 0 {
		if failStatus == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "0")
		}
		http.Error(w, http.StatusText(failStatus), failStatus)
		return
	}

	if custom {
		handler(w, r)
		return
	}

	rest, ok := strings.CutPrefix(path, APIPrefix+"/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	resource, ident, _ := strings.Cut(rest, "/")
	switch {
	case resource == "pokemon" && ident == "":
		m.serveList(w, r)
	case resource == "pokemon":
		m.servePokemon(w, r, ident)
	case resource == "ability" && ident != "":
		m.serveAbility(w, ident)
	case resource == "move" && ident != "":
		m.serveMove(w, ident)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockPokeAPI) writeJSON(w http.ResponseWriter, etag string, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400, s-maxage=86400")
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func (m *MockPokeAPI) serveList(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	results := []map[string]string{}
	for id := offset + 1; id <= offset+limit && id <= m.count; id++ {
		s := m.lookup(id)
		results = append(results, map[string]string{
			"name": s.Name,
			"url":  fmt.Sprintf("%s/pokemon/%d/", m.BaseURL(), id),
		})
	}

	var next, previous any
	if offset+limit < m.count {
		next = fmt.Sprintf("%s/pokemon?offset=%d&limit=%d", m.BaseURL(), offset+limit, limit)
	}
	if offset > 0 {
		previous = fmt.Sprintf("%s/pokemon?offset=%d&limit=%d", m.BaseURL(), max(0, offset-limit), limit)
	}

	m.writeJSON(w, "", map[string]any{
		"count":    m.count,
		"next":     next,
		"previous": previous,
		"results":  results,
	})
}

func (m *MockPokeAPI) lookup(id int) Species {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.species[id]; ok {
		return s
	}
	return Species{
		ID:        id,
		Name:      fmt.Sprintf("pokemon-%d", id),
		Types:     []string{"normal"},
		Stats:     [6]int{50, 50, 50, 50, 50, 50},
		Abilities: []string{"run-away"},
		Moves:     []string{"tackle"},
	}
}

func (m *MockPokeAPI) servePokemon(w http.ResponseWriter, r *http.Request, ident string) {
	id, err := strconv.Atoi(ident)
	if err != nil {
		m.mu.RLock()
		id = m.byName[ident]
		m.mu.RUnlock()
	}
	m.mu.RLock()
	_, known := m.species[id]
	m.mu.RUnlock()
	if id <= 0 || (id > m.count && !known) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	etag := fmt.Sprintf(`W/"pokemon-%d"`, id)
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	m.writeJSON(w, etag, m.pokemonDocument(m.lookup(id)))
}

// pokemonDocument renders a species the way /pokemon/{id} does.
func (m *MockPokeAPI) pokemonDocument(s Species) map[string]any {
	base := m.BaseURL()

	types := make([]map[string]any, 0, len(s.Types))
	for i, t := range s.Types {
		types = append(types, map[string]any{
			"slot": i + 1,
			"type": map[string]string{"name": t, "url": base + "/type/" + t + "/"},
		})
	}

	stats := make([]map[string]any, 0, len(statNames))
	for i, name := range statNames {
		stats = append(stats, map[string]any{
			"base_stat": s.Stats[i],
			"effort":    0,
			"stat":      map[string]string{"name": name, "url": fmt.Sprintf("%s/stat/%d/", base, i+1)},
		})
	}

	abilities := []map[string]any{}
	for i, a := range s.Abilities {
		abilities = append(abilities, map[string]any{
			"ability":   map[string]string{"name": a, "url": base + "/ability/" + a + "/"},
			"is_hidden": false,
			"slot":      i + 1,
		})
	}
	if s.Hidden != "" {
		abilities = append(abilities, map[string]any{
			"ability":   map[string]string{"name": s.Hidden, "url": base + "/ability/" + s.Hidden + "/"},
			"is_hidden": true,
			"slot":      3,
		})
	}

	moves := []map[string]any{}
	for i, mv := range s.Moves {
		method, level := "level-up", i*5+1
		if i%3 == 2 {
			method, level = "machine", 0
		}
		moves = append(moves, map[string]any{
			"move": map[string]string{"name": mv, "url": base + "/move/" + mv + "/"},
			"version_group_details": []map[string]any{{
				"level_learned_at":  level,
				"move_learn_method": map[string]string{"name": method, "url": base + "/move-learn-method/" + method + "/"},
				"version_group":     map[string]string{"name": "red-blue", "url": base + "/version-group/1/"},
			}},
		})
	}

	sprite := func(kind string) string {
		return fmt.Sprintf("https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%s%d.png", kind, s.ID)
	}

	return map[string]any{
		"id":              s.ID,
		"name":            s.Name,
		"base_experience": 64 + s.ID,
		"height":          4 + s.ID%20,
		"weight":          60 + s.ID*3,
		"types":           types,
		"stats":           stats,
		"abilities":       abilities,
		"moves":           moves,
		"sprites": map[string]any{
			"front_default": sprite(""),
			"back_default":  sprite("back/"),
			"front_shiny":   sprite("shiny/"),
			"back_shiny":    nil,
			"other": map[string]any{
				"official-artwork": map[string]any{
					"front_default": sprite("other/official-artwork/"),
				},
			},
		},
	}
}

func (m *MockPokeAPI) serveAbility(w http.ResponseWriter, name string) {
	m.mu.RLock()
	var holders []map[string]any
	for id := 1; id <= m.count; id++ {
		s, ok := m.species[id]
		if !ok {
			continue
		}
		for _, a := range append(append([]string{}, s.Abilities...), s.Hidden) {
			if a == name {
				holders = append(holders, map[string]any{
					"is_hidden": a == s.Hidden,
					"slot":      1,
					"pokemon":   map[string]string{"name": s.Name, "url": fmt.Sprintf("%s/pokemon/%d/", m.BaseURL(), id)},
				})
			}
		}
	}
	m.mu.RUnlock()

	if name == "run-away" {
		for i := 0; i < 8; i++ {
			holders = append(holders, map[string]any{
				"is_hidden": false,
				"slot":      1,
				"pokemon":   map[string]string{"name": fmt.Sprintf("runner-%d", i), "url": ""},
			})
		}
	}

	m.writeJSON(w, "", map[string]any{
		"id":   len(name),
		"name": name,
		"effect_entries": []map[string]any{
			{"effect": "Wirkung von " + name + ".", "language": map[string]string{"name": "de"}},
			{"effect": "Effect of " + name + ".", "language": map[string]string{"name": "en"}},
		},
		"pokemon": holders,
	})
}

func (m *MockPokeAPI) serveMove(w http.ResponseWriter, name string) {
	var power, accuracy any = 40 + len(name), 100
	if name == "swift" {
		accuracy = nil
	}
	if name == "fly" || name == "psychic" {
		power = 90
	}
	if strings.HasPrefix(name, "growl") {
		power = nil
	}

	m.writeJSON(w, "", map[string]any{
		"id":           len(name),
		"name":         name,
		"type":         map[string]string{"name": "normal"},
		"power":        power,
		"pp":           15,
		"accuracy":     accuracy,
		"damage_class": map[string]string{"name": "physical"},
	})
}
