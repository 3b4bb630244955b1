package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sternrassler/pokedex/pkg/store"
)

// SessionCookie names the visitor session cookie.
const SessionCookie = "pokedex_session"

const sessionMaxAge = 365 * 24 * 60 * 60

// session returns the visitor's session id, issuing a new cookie when the
// request has no valid one.
func (s *Server) session(c *gin.Context) string {
	if id, err := c.Cookie(SessionCookie); err == nil && store.ValidSessionID(id) {
		return id
	}

	id := store.NewSessionID()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, sessionMaxAge, "/", "", s.config.SecureCookies, true)
	return id
}

// preferencesUpdate is a partial preferences change; absent fields keep
// their stored value.
type preferencesUpdate struct {
	DarkMode    *bool     `json:"dark_mode"`
	GridView    *bool     `json:"grid_view"`
	TypeFilters *[]string `json:"type_filters"`
	SearchTerm  *string   `json:"search_term"`
}

func (s *Server) getPreferences(c *gin.Context) {
	prefs, err := s.prefs.Get(c.Request.Context(), s.session(c))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load preferences")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "Failed to load preferences", Retry: true})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) putPreferences(c *gin.Context) {
	var update preferencesUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid preferences: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	prefs, err := s.prefs.Get(ctx, s.session(c))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load preferences")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "Failed to load preferences", Retry: true})
		return
	}

	if update.DarkMode != nil {
		prefs.DarkMode = *update.DarkMode
	}
	if update.GridView != nil {
		prefs.GridView = *update.GridView
	}
	if update.TypeFilters != nil {
		filters := make([]string, 0, len(*update.TypeFilters))
		for _, t := range *update.TypeFilters {
			filters = append(filters, strings.ToLower(strings.TrimSpace(t)))
		}
		if err := validateTypes(filters); err != nil {
			badRequest(c, err.Error())
			return
		}
		prefs.TypeFilters = filters
	}
	if update.SearchTerm != nil {
		prefs.SearchTerm = strings.TrimSpace(*update.SearchTerm)
	}

	saved, err := s.prefs.Put(ctx, prefs)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to save preferences")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "Failed to save preferences", Retry: true})
		return
	}
	c.JSON(http.StatusOK, saved)
}
