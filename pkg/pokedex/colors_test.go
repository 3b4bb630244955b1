package pokedex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorTablesCoverKnownTypes(t *testing.T) {
	types := KnownTypes()
	assert.Len(t, types, 18)

	for _, typ := range types {
		assert.True(t, IsKnownType(typ), typ)
		assert.Contains(t, featuredGradients, typ)
		c := ColorFor(typ)
		assert.NotEmpty(t, c.Bg)
		assert.NotEmpty(t, c.Text)
		assert.Equal(t, c.Bg+"/20", c.Light)
	}
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, TypeColor{Bg: "bg-orange-500", Text: "text-orange-600", Light: "bg-orange-500/20"}, ColorFor("fire"))
	assert.Equal(t, ColorFor("normal"), ColorFor("shadow"))
}

func TestBadgeClass(t *testing.T) {
	assert.Equal(t, "bg-yellow-400", BadgeClass("electric"))
	assert.Equal(t, FallbackBadge, BadgeClass("unknown"))
}

func TestGradientFor(t *testing.T) {
	assert.Equal(t, "from-orange-500 to-red-600", GradientFor("fire"))
	assert.Equal(t, "from-blue-600 to-purple-700", GradientFor("dragon"))
	assert.Equal(t, FallbackGradient, GradientFor("stellar"))
}
