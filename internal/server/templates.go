package server

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/Sternrassler/pokedex/pkg/pokedex"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"formatName": pokedex.FormatName,
	"formatID":   pokedex.FormatID,
	"badge":      pokedex.BadgeClass,
	"join":       strings.Join,
	"percent": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v)
	},
	"tabURL": func(id int, tab string) string {
		return fmt.Sprintf("/pokemon/%d?tab=%s", id, tab)
	},
	"dict": dict,
}

// dict builds a map from alternating keys and values, for passing several
// values to a nested template.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
