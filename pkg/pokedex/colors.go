package pokedex

// TypeColor holds the CSS classes used to theme a type.
type TypeColor struct {
	Bg    string `json:"bg"`
	Text  string `json:"text"`
	Light string `json:"light"`
}

// FallbackGradient themes featured cards whose type has no gradient.
const FallbackGradient = "from-gray-500 to-gray-700"

// FallbackBadge is the badge background for unknown types.
const FallbackBadge = "bg-gray-600"

var typeColors = map[string]TypeColor{
	"normal":   {Bg: "bg-gray-400", Text: "text-gray-800", Light: "bg-gray-400/20"},
	"fire":     {Bg: "bg-orange-500", Text: "text-orange-600", Light: "bg-orange-500/20"},
	"water":    {Bg: "bg-blue-500", Text: "text-blue-600", Light: "bg-blue-500/20"},
	"electric": {Bg: "bg-yellow-400", Text: "text-yellow-600", Light: "bg-yellow-400/20"},
	"grass":    {Bg: "bg-green-500", Text: "text-green-600", Light: "bg-green-500/20"},
	"ice":      {Bg: "bg-blue-200", Text: "text-blue-700", Light: "bg-blue-200/20"},
	"fighting": {Bg: "bg-red-600", Text: "text-red-700", Light: "bg-red-600/20"},
	"poison":   {Bg: "bg-purple-500", Text: "text-purple-700", Light: "bg-purple-500/20"},
	"ground":   {Bg: "bg-yellow-600", Text: "text-yellow-700", Light: "bg-yellow-600/20"},
	"flying":   {Bg: "bg-indigo-300", Text: "text-indigo-700", Light: "bg-indigo-300/20"},
	"psychic":  {Bg: "bg-pink-500", Text: "text-pink-700", Light: "bg-pink-500/20"},
	"bug":      {Bg: "bg-lime-500", Text: "text-lime-700", Light: "bg-lime-500/20"},
	"rock":     {Bg: "bg-yellow-700", Text: "text-yellow-800", Light: "bg-yellow-700/20"},
	"ghost":    {Bg: "bg-purple-700", Text: "text-purple-800", Light: "bg-purple-700/20"},
	"dragon":   {Bg: "bg-indigo-600", Text: "text-indigo-800", Light: "bg-indigo-600/20"},
	"dark":     {Bg: "bg-gray-700", Text: "text-gray-800", Light: "bg-gray-700/20"},
	"steel":    {Bg: "bg-gray-400", Text: "text-gray-700", Light: "bg-gray-400/20"},
	"fairy":    {Bg: "bg-pink-300", Text: "text-pink-700", Light: "bg-pink-300/20"},
}

var featuredGradients = map[string]string{
	"normal":   "from-gray-400 to-gray-500",
	"fire":     "from-orange-500 to-red-600",
	"water":    "from-blue-400 to-blue-600",
	"electric": "from-yellow-400 to-yellow-500",
	"grass":    "from-green-400 to-green-600",
	"ice":      "from-blue-200 to-blue-400",
	"fighting": "from-red-600 to-red-800",
	"poison":   "from-purple-400 to-purple-600",
	"ground":   "from-yellow-600 to-yellow-800",
	"flying":   "from-blue-300 to-purple-400",
	"psychic":  "from-pink-400 to-pink-600",
	"bug":      "from-green-500 to-green-700",
	"rock":     "from-yellow-700 to-yellow-900",
	"ghost":    "from-indigo-400 to-indigo-700",
	"dragon":   "from-blue-600 to-purple-700",
	"dark":     "from-gray-700 to-gray-900",
	"steel":    "from-gray-400 to-gray-600",
	"fairy":    "from-pink-300 to-pink-500",
}

// topStatColors colour the featured card's top stats.
var topStatColors = map[string]string{
	"hp":              "#ff5959",
	"attack":          "#f5ac78",
	"defense":         "#9db7f5",
	"special-attack":  "#9499f8",
	"special-defense": "#a7db8d",
	"speed":           "#fa92b2",
}

// ColorFor returns the theme for a type, falling back to normal.
func ColorFor(typeName string) TypeColor {
	if c, ok := typeColors[typeName]; ok {
		return c
	}
	return typeColors["normal"]
}

// BadgeClass returns the badge background for a type.
func BadgeClass(typeName string) string {
	if c, ok := typeColors[typeName]; ok {
		return c.Bg
	}
	return FallbackBadge
}

// GradientFor returns the featured-card gradient for a type.
func GradientFor(typeName string) string {
	if g, ok := featuredGradients[typeName]; ok {
		return g
	}
	return FallbackGradient
}

// KnownTypes returns the 18 type names in catalogue order.
func KnownTypes() []string {
	return []string{
		"normal", "fire", "water", "electric", "grass", "ice",
		"fighting", "poison", "ground", "flying", "psychic", "bug",
		"rock", "ghost", "dragon", "dark", "steel", "fairy",
	}
}

// IsKnownType reports whether name is one of the 18 types.
func IsKnownType(name string) bool {
	_, ok := typeColors[name]
	return ok
}
