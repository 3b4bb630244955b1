package pokedex

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pokedex/pkg/client"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

func TestValidTab(t *testing.T) {
	assert.True(t, ValidTab("stats"))
	assert.True(t, ValidTab("abilities"))
	assert.True(t, ValidTab("moves"))
	assert.False(t, ValidTab("evolutions"))
	assert.False(t, ValidTab(""))
}

func TestNewDetailView(t *testing.T) {
	p := charizard()
	p.BaseExperience = 267
	p.Sprites = pokeapi.Sprites{
		FrontDefault: "front.png",
		BackDefault:  "back.png",
		FrontShiny:   "shiny.png",
	}
	p.Sprites.Other.OfficialArtwork.FrontDefault = "art.png"

	v := NewDetailView(p)

	assert.Equal(t, "Charizard", v.DisplayName)
	assert.Equal(t, "#006", v.Number)
	assert.Equal(t, "art.png", v.Artwork)
	assert.Equal(t, ColorFor("fire"), v.Color)
	assert.Equal(t, []TypeBadge{
		{Name: "fire", Label: "Fire", Class: "bg-orange-500"},
		{Name: "flying", Label: "Flying", Class: "bg-indigo-300"},
	}, v.Types)
	assert.Equal(t, "1.7m", v.Height)
	assert.Equal(t, "90.5kg", v.Weight)
	assert.Equal(t, 267, v.BaseExp)

	assert.Equal(t, []Sprite{
		{Label: "Front", URL: "front.png"},
		{Label: "Back", URL: "back.png"},
		{Label: "Shiny", URL: "shiny.png"},
	}, v.Sprites)

	require.Len(t, v.Stats, 6)
	assert.Equal(t, "special attack", v.Stats[3].Label)
	assert.InDelta(t, 109.0/255*100, v.Stats[3].Percent, 0.001)
	assert.Equal(t, 534, v.StatTotal)

	assert.Equal(t, []AbilitySummary{
		{Name: "blaze", DisplayName: "Blaze"},
		{Name: "solar-power", DisplayName: "Solar Power", Hidden: true},
	}, v.Abilities)
}

func TestNewDetailView_Fallbacks(t *testing.T) {
	p := makePokemon(1, "blob", [6]int{255, 300, 0, 0, 0, 0})
	p.Sprites.FrontDefault = "front.png"

	v := NewDetailView(p)
	assert.Equal(t, ColorFor("normal"), v.Color)
	assert.Equal(t, "front.png", v.Artwork)
	assert.Equal(t, float64(100), v.Stats[0].Percent)
	assert.Equal(t, float64(100), v.Stats[1].Percent)
}

func TestDetails_View(t *testing.T) {
	src := newFakeSource(3)
	src.add(charizard())
	d := NewDetails(newTestCatalog(src), 0)

	v, err := d.View(context.Background(), "charizard")
	require.NoError(t, err)
	assert.Equal(t, 6, v.ID)

	_, err = d.View(context.Background(), "404")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func holders(names ...string) []pokeapi.AbilityPokemon {
	out := make([]pokeapi.AbilityPokemon, len(names))
	for i, n := range names {
		out[i] = pokeapi.AbilityPokemon{Pokemon: pokeapi.NamedAPIResource{Name: n}}
	}
	return out
}

func TestDetails_Abilities(t *testing.T) {
	src := newFakeSource(3)
	src.add(charizard())
	src.abilities["66"] = &pokeapi.Ability{
		ID:   66,
		Name: "blaze",
		EffectEntries: []pokeapi.VerboseEffect{
			{Effect: "Feuer.", Language: pokeapi.NamedAPIResource{Name: "de"}},
			{Effect: "Powers up Fire-type moves.", Language: pokeapi.NamedAPIResource{Name: "en"}},
		},
		Pokemon: holders("charmander", "charmeleon", "charizard", "cyndaquil", "quilava", "typhlosion", "torchic", "combusken"),
	}
	d := NewDetails(newTestCatalog(src), 5)

	abilities, err := d.Abilities(context.Background(), "6")
	require.NoError(t, err)
	require.Len(t, abilities, 2)

	blaze := abilities[0]
	assert.True(t, blaze.Loaded)
	assert.Equal(t, "Powers up Fire-type moves.", blaze.Description)
	assert.Equal(t, []string{"Charmander", "Charmeleon", "Cyndaquil", "Quilava", "Typhlosion"}, blaze.Others)
	assert.Equal(t, 2, blaze.MoreCount)
	assert.Equal(t, "+2 more", blaze.More())

	// solar-power is unknown upstream and stays unloaded.
	solar := abilities[1]
	assert.False(t, solar.Loaded)
	assert.True(t, solar.Hidden)
	assert.Empty(t, solar.Description)
	assert.Empty(t, solar.Others)
	assert.Equal(t, "", solar.More())
}

func TestFillAbility(t *testing.T) {
	var a AbilityDetail
	fillAbility(&a, &pokeapi.Ability{Pokemon: holders("bulbasaur", "ivysaur")}, "bulbasaur")

	assert.Equal(t, MsgNoDescription, a.Description)
	assert.Equal(t, []string{"Ivysaur"}, a.Others)
	assert.Zero(t, a.MoreCount)

	var b AbilityDetail
	fillAbility(&b, &pokeapi.Ability{Pokemon: holders("a", "b", "c", "d", "e", "f", "g")}, "z")
	assert.Len(t, b.Others, 5)
	assert.Equal(t, 1, b.MoreCount)
}

func learnedBy(method string, level int) []pokeapi.VersionGroupDetail {
	return []pokeapi.VersionGroupDetail{{
		LevelLearnedAt:  level,
		MoveLearnMethod: pokeapi.NamedAPIResource{Name: method},
	}}
}

func TestFillMove_ZeroPowerAndAccuracyAreMissing(t *testing.T) {
	var row MoveRow
	fillMove(&row, &pokeapi.Move{
		Name:        "growl",
		Type:        pokeapi.NamedAPIResource{Name: "normal"},
		Power:       intPtr(0),
		PP:          intPtr(0),
		Accuracy:    intPtr(0),
		DamageClass: pokeapi.NamedAPIResource{Name: "status"},
	})

	assert.True(t, row.Loaded)
	assert.Equal(t, Missing, row.Power)
	assert.Equal(t, Missing, row.Accuracy)
	assert.Equal(t, "0", row.PP)
	assert.Equal(t, "Status", row.Category)
}

func TestMethodText(t *testing.T) {
	assert.Equal(t, "Level 36", MethodText(learnedBy("level-up", 36)))
	assert.Equal(t, "Machine", MethodText(learnedBy("machine", 0)))
	assert.Equal(t, "Tutor", MethodText(learnedBy("tutor", 0)))
	assert.Equal(t, "Unknown", MethodText(nil))
}

func TestDetails_Moves(t *testing.T) {
	src := newFakeSource(3)
	p := charizard()
	names := []string{"scratch", "ember", "flamethrower", "growl", "fly", "slash", "dragon-claw"}
	for i, n := range names {
		p.Moves = append(p.Moves, pokeapi.PokemonMove{
			Move:                pokeapi.NamedAPIResource{Name: n, URL: fmt.Sprintf("https://pokeapi.co/api/v2/move/%d/", i+1)},
			VersionGroupDetails: learnedBy("level-up", i*5+1),
		})
		src.moves[fmt.Sprint(i+1)] = &pokeapi.Move{
			ID:          i + 1,
			Name:        n,
			Type:        pokeapi.NamedAPIResource{Name: "fire"},
			Power:       intPtr(40 + i),
			PP:          intPtr(15),
			Accuracy:    intPtr(100),
			DamageClass: pokeapi.NamedAPIResource{Name: "special"},
		}
	}
	src.moves["4"].Power = nil
	src.moves["4"].Accuracy = nil
	src.failMove["6"] = errors.New("timeout")
	src.add(p)

	d := NewDetails(newTestCatalog(src), 2)
	rows, err := d.Moves(context.Background(), "charizard")
	require.NoError(t, err)
	require.Len(t, rows, 7)

	assert.Equal(t, MoveRow{
		Name:        "scratch",
		DisplayName: "Scratch",
		Method:      "Level 1",
		Loaded:      true,
		Type:        "fire",
		TypeClass:   "bg-orange-500",
		Category:    "Special",
		Power:       "40",
		PP:          "15",
		Accuracy:    "100%",
	}, rows[0])

	assert.Equal(t, Missing, rows[3].Power)
	assert.Equal(t, Missing, rows[3].Accuracy)

	assert.False(t, rows[5].Loaded)
	assert.Equal(t, "Slash", rows[5].DisplayName)
	assert.Equal(t, "Level 26", rows[5].Method)
	assert.Empty(t, rows[5].Power)

	assert.Equal(t, "Dragon Claw", rows[6].DisplayName)
	assert.True(t, rows[6].Loaded)
	for i := range names {
		assert.Equal(t, 1, src.calls(fmt.Sprintf("move:%d", i+1)))
	}
}

func TestDetails_MovesCancelled(t *testing.T) {
	src := newFakeSource(3)
	p := charizard()
	p.Moves = []pokeapi.PokemonMove{{Move: pokeapi.NamedAPIResource{Name: "ember"}}}
	src.add(p)
	d := NewDetails(newTestCatalog(src), 5)

	// Cache the record first so the cancelled context only affects moves.
	_, err := d.View(context.Background(), "6")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rows, err := d.Moves(ctx, "6")
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Loaded)
	assert.Equal(t, "Unknown", rows[0].Method)
}

func TestResourceRef(t *testing.T) {
	assert.Equal(t, "66", resourceRef(pokeapi.NamedAPIResource{Name: "blaze", URL: "https://pokeapi.co/api/v2/ability/66/"}))
	assert.Equal(t, "blaze", resourceRef(pokeapi.NamedAPIResource{Name: "blaze"}))
}
