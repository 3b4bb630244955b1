package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pokedex/internal/testutil"
	"github.com/Sternrassler/pokedex/pkg/client"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
	"github.com/Sternrassler/pokedex/pkg/pokedex"
	"github.com/Sternrassler/pokedex/pkg/store"
)

type testEnv struct {
	server *Server
	svc    *pokedex.Service
	mock   *testutil.MockPokeAPI
	redis  *miniredis.Miniredis
	prefs  *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock := testutil.NewMockPokeAPI(40)
	t.Cleanup(mock.Close)

	redisClient, mr := testutil.NewRedis(t)
	ccfg := client.DefaultConfig(redisClient, "pokedex-test/1.0")
	ccfg.BaseURL = mock.BaseURL()
	ccfg.InitialBackoff = time.Millisecond
	ccfg.MaxRetries = 1

	c, err := client.New(ccfg)
	require.NoError(t, err)

	cfg := pokedex.DefaultConfig()
	cfg.BuildNameIndex = false
	svc := pokedex.NewService(pokeapi.New(c), cfg)

	prefs, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { prefs.Close() })

	s, err := New(svc, c, prefs, DefaultConfig())
	require.NoError(t, err)

	return &testEnv{server: s, svc: svc, mock: mock, redis: mr, prefs: prefs}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := New(nil, env.server.upstream, env.prefs, DefaultConfig())
	assert.EqualError(t, err, "pokedex service is required")
	_, err = New(env.svc, nil, env.prefs, DefaultConfig())
	assert.EqualError(t, err, "upstream pinger is required")
	_, err = New(env.svc, env.server.upstream, nil, DefaultConfig())
	assert.EqualError(t, err, "preferences store is required")
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.redis.SetError("ERR server down")
	rec = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "server down")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health",status="200"}`)
}

func TestListPokemon(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/pokemon", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pokedex.Page](t, rec)
	assert.Len(t, page.Cards, 20)
	assert.Equal(t, 40, page.Total)
	assert.Equal(t, 20, page.NextOffset)
	assert.True(t, page.HasMore)
	assert.Equal(t, "Charizard", page.Cards[5].DisplayName)

	rec = env.do(t, http.MethodGet, "/api/pokemon?offset=20&limit=30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[pokedex.Page](t, rec)
	assert.Len(t, page.Cards, 20)
	assert.False(t, page.HasMore)

	rec = env.do(t, http.MethodGet, "/api/pokemon?types=fire,%20WATER", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[pokedex.Page](t, rec)
	names := make([]string, 0, len(page.Cards))
	for _, c := range page.Cards {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"charmander", "charizard", "squirtle"}, names)
}

func TestListPokemon_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{
		"/api/pokemon?offset=-1",
		"/api/pokemon?limit=101",
		"/api/pokemon?offset=abc",
		"/api/pokemon?types=shadow",
	} {
		rec := env.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		body := decode[errorBody](t, rec)
		assert.False(t, body.Retry, target)
	}
}

func TestListPokemon_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mock.SetResponse("/api/v2/pokemon", testutil.MockResponse{StatusCode: http.StatusInternalServerError})

	rec := env.do(t, http.MethodGet, "/api/pokemon", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, errorBody{Error: pokedex.MsgListFailed, Retry: true}, decode[errorBody](t, rec))
}

func TestGetPokemon(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/pokemon/charizard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[pokedex.DetailView](t, rec)
	assert.Equal(t, 6, view.ID)
	assert.Equal(t, "#006", view.Number)
	assert.Equal(t, 534, view.StatTotal)

	rec = env.do(t, http.MethodGet, "/api/pokemon/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errorBody{Error: "Pokemon not found"}, decode[errorBody](t, rec))

	env.mock.SetResponse("/api/v2/pokemon/7", testutil.MockResponse{StatusCode: http.StatusServiceUnavailable})
	rec = env.do(t, http.MethodGet, "/api/pokemon/7", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, errorBody{Error: pokedex.MsgDetailFailed, Retry: true}, decode[errorBody](t, rec))
}

func TestGetAbilitiesAndMoves(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/pokemon/25/abilities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	abilities := decode[struct {
		Abilities []pokedex.AbilityDetail `json:"abilities"`
	}](t, rec).Abilities
	require.Len(t, abilities, 2)
	assert.Equal(t, "Static", abilities[0].DisplayName)
	assert.Equal(t, "Effect of static.", abilities[0].Description)
	assert.True(t, abilities[1].Hidden)

	rec = env.do(t, http.MethodGet, "/api/pokemon/25/moves", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	moves := decode[struct {
		Moves []pokedex.MoveRow `json:"moves"`
	}](t, rec).Moves
	require.Len(t, moves, 3)
	assert.Equal(t, "Thunder Shock", moves[0].DisplayName)
	assert.Equal(t, "Level 1", moves[0].Method)
	assert.Equal(t, "Machine", moves[2].Method)

	rec = env.do(t, http.MethodGet, "/api/pokemon/9999/moves", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/search?q=Pikachu", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[struct {
		Result pokedex.Card `json:"result"`
	}](t, rec)
	assert.Equal(t, 25, found.Result.ID)

	rec = env.do(t, http.MethodGet, "/api/search?q=agumon", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errorBody{Error: `No Pokémon found matching "agumon"`}, decode[errorBody](t, rec))

	rec = env.do(t, http.MethodGet, "/api/search?q=%20%20", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"query":"","result":null}`, rec.Body.String())

	env.mock.SetResponse("/api/v2/pokemon/raichu", testutil.MockResponse{StatusCode: http.StatusInternalServerError})
	rec = env.do(t, http.MethodGet, "/api/search?q=raichu", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, errorBody{Error: pokedex.MsgSearchFailed, Retry: true}, decode[errorBody](t, rec))
}

func TestSuggest(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Names.Load([]pokeapi.NamedAPIResource{
		{Name: "charmander", URL: "https://pokeapi.co/api/v2/pokemon/4/"},
		{Name: "charizard", URL: "https://pokeapi.co/api/v2/pokemon/6/"},
		{Name: "pikachu", URL: "https://pokeapi.co/api/v2/pokemon/25/"},
	}, true)

	rec := env.do(t, http.MethodGet, "/api/suggest?q=char", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Suggestions []pokedex.Suggestion `json:"suggestions"`
		Complete    bool                 `json:"complete"`
	}](t, rec)
	assert.True(t, got.Complete)
	require.Len(t, got.Suggestions, 2)
	assert.Equal(t, "charizard", got.Suggestions[0].Name)
	assert.Equal(t, 6, got.Suggestions[0].ID)

	rec = env.do(t, http.MethodGet, "/api/suggest?q=char&limit=1", nil)
	assert.Len(t, decode[struct {
		Suggestions []pokedex.Suggestion `json:"suggestions"`
	}](t, rec).Suggestions, 1)

	rec = env.do(t, http.MethodGet, "/api/suggest?q=char&limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeatured(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/featured", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Cards      []pokedex.FeaturedCard `json:"cards"`
		Index      int                    `json:"index"`
		IntervalMS int64                  `json:"interval_ms"`
	}](t, rec)

	require.Len(t, got.Cards, 5)
	assert.Equal(t, "pikachu", got.Cards[0].Name)
	assert.Equal(t, "fire/flying", got.Cards[1].Types)
	assert.Equal(t, "mewtwo", got.Cards[2].Name)
	assert.Equal(t, "from-blue-600 to-purple-700", got.Cards[3].Gradient)
	assert.Equal(t, 0, got.Index)
	assert.Equal(t, int64(7000), got.IntervalMS)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/preferences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, store.ValidSessionID(cookie.Value))

	prefs := decode[store.Preferences](t, rec)
	assert.Equal(t, cookie.Value, prefs.SessionID)
	assert.True(t, prefs.DarkMode)
	assert.True(t, prefs.GridView)

	rec = env.do(t, http.MethodPut, "/api/preferences",
		strings.NewReader(`{"dark_mode": false, "type_filters": ["Fire", "water"]}`), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, sessionCookie(rec))

	rec = env.do(t, http.MethodGet, "/api/preferences", nil, cookie)
	prefs = decode[store.Preferences](t, rec)
	assert.False(t, prefs.DarkMode)
	assert.True(t, prefs.GridView)
	assert.Equal(t, []string{"fire", "water"}, prefs.TypeFilters)

	rec = env.do(t, http.MethodPut, "/api/preferences", strings.NewReader(`{"type_filters": ["shadow"]}`), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/preferences", strings.NewReader(`{"dark_mode": "yes"}`), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreferences_InvalidCookieReissued(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/preferences", nil, &http.Cookie{Name: SessionCookie, Value: "forged"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.NotEqual(t, "forged", cookie.Value)
}

func TestHomePage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Explore the World of Pokémon")
	assert.Contains(t, body, `class="dark"`)
	assert.Contains(t, body, "Charizard")
	assert.Contains(t, body, "Mewtwo")
	assert.Contains(t, body, `data-next-offset="20"`)
	assert.NotNil(t, sessionCookie(rec))
}

func TestHomePage_Search(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/?q=squirtle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Squirtle")
	assert.NotContains(t, rec.Body.String(), "data-next-offset")

	rec = env.do(t, http.MethodGet, "/?q=agumon", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No Pokémon found matching")
}

func TestHomePage_PreferredFilters(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/preferences", nil)
	cookie := sessionCookie(rec)
	env.do(t, http.MethodPut, "/api/preferences", strings.NewReader(`{"type_filters": ["water"], "grid_view": false}`), cookie)

	rec = env.do(t, http.MethodGet, "/", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "list-view")
	assert.Contains(t, body, `data-id="7"`)
	assert.NotContains(t, body, `data-id="1"`)
}

func TestCardsPartial(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/partials/cards?offset=20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-id="21"`)
	assert.Contains(t, body, `data-id="40"`)
	assert.Contains(t, body, "You've seen them all!")

	env.mock.SetResponse("/api/v2/pokemon", testutil.MockResponse{StatusCode: http.StatusInternalServerError})
	rec = env.do(t, http.MethodGet, "/partials/cards?offset=0", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), pokedex.MsgListFailed)
	assert.Contains(t, rec.Body.String(), "Retry")
}

func TestDetailPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/pokemon/6", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Charizard")
	assert.Contains(t, body, "#006")
	assert.Contains(t, body, "534")

	rec = env.do(t, http.MethodGet, "/pokemon/6?tab=abilities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Effect of blaze.")
	assert.Contains(t, rec.Body.String(), "Charmander")

	rec = env.do(t, http.MethodGet, "/pokemon/6?tab=moves", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Flamethrower")
	assert.Contains(t, rec.Body.String(), "Dragon Claw")

	rec = env.do(t, http.MethodGet, "/pokemon/6?tab=evolution", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Total")
}

func TestDetailPage_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/pokemon/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pokemon Not Found")
	assert.Contains(t, rec.Body.String(), "Go Back")

	rec = env.do(t, http.MethodGet, "/pokemon/mr.%20mime", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.mock.SetResponse("/api/v2/pokemon/8", testutil.MockResponse{StatusCode: http.StatusInternalServerError})
	rec = env.do(t, http.MethodGet, "/pokemon/8", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), pokedex.MsgDetailFailed)
	assert.Contains(t, rec.Body.String(), "Go Back")
}

func TestNoRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page Not Found")
}

func TestFeaturedSocket(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/featured"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg rotationMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 0, msg.Index)

	env.svc.Rotator.Advance()
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 1, msg.Index)

	require.NoError(t, conn.WriteJSON(map[string]int{"select": 3}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 3, msg.Index)
	assert.Equal(t, 3, env.svc.Rotator.Current())
}
