package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sternrassler/pokedex/pkg/pokedex"
)

// listQuery are the grid query parameters.
type listQuery struct {
	Offset int    `form:"offset" binding:"min=0"`
	Limit  int    `form:"limit" binding:"min=0,max=100"`
	Types  string `form:"types"`
}

// bindList parses the grid query, returning the page request.
func bindList(c *gin.Context) (pokedex.PageRequest, error) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return pokedex.PageRequest{}, fmt.Errorf("invalid list parameters: %w", err)
	}
	types, err := parseTypes(q.Types)
	if err != nil {
		return pokedex.PageRequest{}, err
	}
	return pokedex.PageRequest{Offset: q.Offset, Limit: q.Limit, Types: types}, nil
}

// parseTypes splits a comma separated type list, rejecting unknown types.
func parseTypes(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var types []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !pokedex.IsKnownType(t) {
			return nil, fmt.Errorf("unknown type %q", t)
		}
		types = append(types, t)
	}
	return types, nil
}

// validateTypes checks every entry is a known type.
func validateTypes(types []string) error {
	for _, t := range types {
		if !pokedex.IsKnownType(t) {
			return fmt.Errorf("unknown type %q", t)
		}
	}
	return nil
}
