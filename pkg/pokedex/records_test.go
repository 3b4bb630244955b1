package pokedex

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pokedex/pkg/pokeapi"
)

func TestRecordCache_PutGet(t *testing.T) {
	c := NewRecordCache()
	p := makePokemon(25, "Pikachu", [6]int{}, "electric")

	assert.Same(t, p, c.Put(p))

	got, ok := c.Get(25)
	require.True(t, ok)
	assert.Same(t, p, got)

	got, ok = c.GetByName("PIKACHU")
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = c.Get(26)
	assert.False(t, ok)
	_, ok = c.GetByName("raichu")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestRecordCache_IDStoredOnce(t *testing.T) {
	c := NewRecordCache()
	first := makePokemon(1, "bulbasaur", [6]int{}, "grass")
	second := makePokemon(1, "bulbasaur", [6]int{}, "grass")

	c.Put(first)
	assert.Same(t, first, c.Put(second))
	assert.Equal(t, 1, c.Len())
}

func TestRecordCache_IgnoresInvalid(t *testing.T) {
	c := NewRecordCache()
	c.Put(nil)
	c.Put(&pokeapi.Pokemon{Name: "missingno"})
	assert.Equal(t, 0, c.Len())
}

func TestRecordCache_Missing(t *testing.T) {
	c := NewRecordCache()
	c.Put(makePokemon(2, "ivysaur", [6]int{}))
	c.Put(makePokemon(4, "charmander", [6]int{}))

	assert.Equal(t, []int{1, 3, 5}, c.Missing([]int{1, 2, 3, 3, 4, 1, 5}))
	assert.Empty(t, c.Missing([]int{2, 4}))
}

func TestRecordCache_Concurrent(t *testing.T) {
	c := NewRecordCache()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := 1; id <= 100; id++ {
				c.Put(makePokemon(id, fmt.Sprintf("p-%d", id), [6]int{}))
				c.Get(id)
				c.Missing([]int{id, id + 1})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, c.Len())
}
