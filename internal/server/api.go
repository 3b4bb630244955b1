package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sternrassler/pokedex/pkg/pokedex"
)

func (s *Server) listPokemon(c *gin.Context) {
	req, err := bindList(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := s.svc.Catalog.Page(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err, pokedex.MsgListFailed)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) getPokemon(c *gin.Context) {
	view, err := s.svc.Details.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, pokedex.MsgDetailFailed)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getAbilities(c *gin.Context) {
	abilities, err := s.svc.Details.Abilities(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, pokedex.MsgDetailFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{"abilities": abilities})
}

func (s *Server) getMoves(c *gin.Context) {
	moves, err := s.svc.Details.Moves(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, pokedex.MsgDetailFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moves": moves})
}

func (s *Server) search(c *gin.Context) {
	query := c.Query("q")
	card, err := s.svc.Search.Search(c.Request.Context(), query)
	switch {
	case errors.Is(err, pokedex.ErrEmptyQuery):
		// A blank term clears the search.
		c.JSON(http.StatusOK, gin.H{"query": "", "result": nil})
	case err != nil:
		s.writeError(c, err, pokedex.MsgSearchFailed)
	default:
		c.JSON(http.StatusOK, gin.H{"query": query, "result": card})
	}
}

func (s *Server) suggest(c *gin.Context) {
	limit := s.config.SuggestLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, s.config.SuggestLimit)
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": s.svc.Names.Suggest(c.Query("q"), limit),
		"complete":    s.svc.Names.Complete(),
	})
}

func (s *Server) featured(c *gin.Context) {
	cards, err := s.svc.Featured.Cards(c.Request.Context())
	if err != nil {
		s.writeError(c, err, pokedex.MsgListFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cards":       cards,
		"index":       s.svc.Rotator.Current(),
		"interval_ms": s.svc.Rotator.Interval().Milliseconds(),
	})
}
