package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pokedex/internal/testutil"
	"github.com/Sternrassler/pokedex/pkg/config"
	"github.com/Sternrassler/pokedex/pkg/pokedex"
)

// setupEnv points the commands at a mock PokeAPI and an in-process Redis.
func setupEnv(t *testing.T) *testutil.MockPokeAPI {
	t.Helper()

	mock := testutil.NewMockPokeAPI(40)
	t.Cleanup(mock.Close)
	mr := miniredis.RunT(t)

	t.Setenv("POKEAPI_BASE_URL", mock.BaseURL())
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("POKEDEX_DB", filepath.Join(t.TempDir(), "prefs.db"))
	t.Setenv("LOG_LEVEL", "error")
	return mock
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "get", "list", "search"}, names)

	for _, flag := range []string{"config", "log-level", "pretty"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestGetCmd(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "get", "charizard")
	require.NoError(t, err)

	assert.Contains(t, out, "#006 Charizard")
	assert.Contains(t, out, "Fire, Flying")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "534")
}

func TestGetCmd_JSON(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "get", "25", "--json")
	require.NoError(t, err)

	var view pokedex.DetailView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 25, view.ID)
	assert.Equal(t, "Pikachu", view.DisplayName)
}

func TestGetCmd_NotFound(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "get", "missingno")
	require.Error(t, err)
	assert.Contains(t, err.Error(), pokedex.MsgDetailFailed)
}

func TestListCmd(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "list", "--limit", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "NUMBER")
	assert.Contains(t, out, "#001")
	assert.Contains(t, out, "Bulbasaur")
	assert.Contains(t, out, "grass/poison")
	assert.Contains(t, out, "1-5 of 40")
}

func TestListCmd_TypeFilter(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "list", "--limit", "10", "--type", "fire", "--json")
	require.NoError(t, err)

	var page pokedex.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Cards, 2)
	assert.Equal(t, "charmander", page.Cards[0].Name)
	assert.Equal(t, "charizard", page.Cards[1].Name)
}

func TestListCmd_All(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "list", "--all", "--json")
	require.NoError(t, err)

	var snap pokedex.FeedSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 40, snap.Total)
	require.Len(t, snap.Cards, 40)
	assert.Equal(t, 1, snap.Cards[0].ID)
	assert.Equal(t, 40, snap.Cards[39].ID)
	assert.False(t, snap.HasMore)
}

func TestListCmd_AllFiltered(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "list", "--all", "--type", "water")
	require.NoError(t, err)
	assert.Contains(t, out, "Squirtle")
	assert.Contains(t, out, "1 shown, 40 listed")
}

func TestListCmd_UnknownType(t *testing.T) {
	_, err := execute(t, "list", "--type", "plasma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plasma")
}

func TestSearchCmd(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "search", "  Squirtle ")
	require.NoError(t, err)
	assert.Contains(t, out, "#007")
	assert.Contains(t, out, "Squirtle")

	_, err = execute(t, "search", "agumon")
	require.Error(t, err)
	assert.EqualError(t, err, `No Pokémon found matching "agumon"`)
}

func TestServiceConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Featured.IDs = []int{7}

	got := serviceConfig(cfg)
	assert.Equal(t, []int{7}, got.FeaturedIDs)
	assert.Equal(t, cfg.Featured.Interval, got.RotationInterval)
	assert.Equal(t, cfg.Catalog.PageSize, got.Catalog.PageSize)
	assert.Equal(t, cfg.Catalog.MoveBatchSize, got.MoveBatchSize)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := newRedis(context.Background(), config.RedisConfig{Addr: "redis://localhost:6379/notadb"})
	require.Error(t, err)
}
