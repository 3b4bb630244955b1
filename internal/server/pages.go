package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sternrassler/pokedex/pkg/client"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
	"github.com/Sternrassler/pokedex/pkg/pokedex"
	"github.com/Sternrassler/pokedex/pkg/store"
)

// homePage is the data of the home template.
type homePage struct {
	Prefs         store.Preferences
	Featured      []pokedex.FeaturedCard
	FeaturedError string
	Current       int
	IntervalMS    int64
	Types         []string
	Grid          gridFragment
	Search        *gridFragment
	SearchError   string
}

// gridFragment is a window of cards plus the infinite-scroll cursor.
type gridFragment struct {
	Cards      []pokedex.Card
	NextOffset int
	HasMore    bool
	Types      string
	Error      string
	// Standalone fragments have no pagination controls.
	Standalone bool
}

// detailPage is the data of the detail template.
type detailPage struct {
	Prefs     store.Preferences
	View      *pokedex.DetailView
	Tab       string
	Tabs      []string
	Abilities []pokedex.AbilityDetail
	Moves     []pokedex.MoveRow
}

// errorPage is the data of the error template.
type errorPage struct {
	Status  int
	Title   string
	Message string
}

func (s *Server) renderError(c *gin.Context, status int, title, message string) {
	c.HTML(status, "error.tmpl", errorPage{Status: status, Title: title, Message: message})
}

func (s *Server) home(c *gin.Context) {
	ctx := c.Request.Context()

	prefs, err := s.prefs.Get(ctx, s.session(c))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Using default preferences")
		prefs = store.DefaultPreferences("")
	}

	types := prefs.TypeFilters
	if raw, ok := c.GetQuery("types"); ok {
		if types, err = parseTypes(raw); err != nil {
			s.renderError(c, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	data := homePage{
		Prefs:      prefs,
		Current:    s.svc.Rotator.Current(),
		IntervalMS: s.svc.Rotator.Interval().Milliseconds(),
		Types:      types,
	}

	if featured, err := s.svc.Featured.Cards(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to load featured Pokémon")
		data.FeaturedError = pokedex.MsgListFailed
	} else {
		data.Featured = featured
	}

	if q := c.Query("q"); q != "" {
		card, err := s.svc.Search.Search(ctx, q)
		var nf *pokedex.NotFoundError
		switch {
		case errors.As(err, &nf):
			data.SearchError = nf.Error()
		case errors.Is(err, pokedex.ErrEmptyQuery):
		case err != nil:
			s.logger.Error().Err(err).Str("query", q).Msg("Search failed")
			data.SearchError = pokedex.MsgSearchFailed
		default:
			data.Search = &gridFragment{Cards: []pokedex.Card{card}, Standalone: true}
		}
		c.HTML(http.StatusOK, "home.tmpl", data)
		return
	}

	data.Grid = s.grid(c, pokedex.PageRequest{Types: types})
	c.HTML(http.StatusOK, "home.tmpl", data)
}

// grid loads a page for the card grid. Failures become the fragment's
// error so the page still renders with a retry control.
func (s *Server) grid(c *gin.Context, req pokedex.PageRequest) gridFragment {
	frag := gridFragment{Types: strings.Join(req.Types, ","), NextOffset: req.Offset}

	page, err := s.svc.Catalog.Page(c.Request.Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Int("offset", req.Offset).Msg("Failed to load grid page")
		frag.Error = pokedex.MsgListFailed
		frag.HasMore = true
		return frag
	}

	frag.Cards = page.Cards
	frag.NextOffset = page.NextOffset
	frag.HasMore = page.HasMore
	return frag
}

func (s *Server) cardsPartial(c *gin.Context) {
	req, err := bindList(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	frag := s.grid(c, req)
	status := http.StatusOK
	if frag.Error != "" {
		status = http.StatusBadGateway
	}
	c.HTML(status, "cards.tmpl", frag)
}

func (s *Server) detailPage(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	tab := c.DefaultQuery("tab", pokedex.TabStats)
	if !pokedex.ValidTab(tab) {
		tab = pokedex.TabStats
	}

	view, err := s.svc.Details.View(ctx, id)
	if err != nil {
		s.renderDetailError(c, err)
		return
	}

	prefs, err := s.prefs.Get(ctx, s.session(c))
	if err != nil {
		prefs = store.DefaultPreferences("")
	}

	data := detailPage{
		Prefs: prefs,
		View:  view,
		Tab:   tab,
		Tabs:  []string{pokedex.TabStats, pokedex.TabAbilities, pokedex.TabMoves},
	}

	switch tab {
	case pokedex.TabAbilities:
		data.Abilities, err = s.svc.Details.Abilities(ctx, id)
	case pokedex.TabMoves:
		data.Moves, err = s.svc.Details.Moves(ctx, id)
	}
	if err != nil {
		s.renderDetailError(c, err)
		return
	}

	c.HTML(http.StatusOK, "detail.tmpl", data)
}

func (s *Server) renderDetailError(c *gin.Context, err error) {
	if errors.Is(err, client.ErrNotFound) || errors.Is(err, pokeapi.ErrInvalidIdentifier) {
		s.renderError(c, http.StatusNotFound, "Pokemon Not Found", "The Pokémon you're looking for doesn't exist.")
		return
	}
	s.logger.Error().Err(err).Str("id", c.Param("id")).Msg(pokedex.MsgDetailFailed)
	s.renderError(c, statusFor(err), "Error", pokedex.MsgDetailFailed)
}
