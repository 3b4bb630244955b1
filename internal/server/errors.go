package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sternrassler/pokedex/pkg/client"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
	"github.com/Sternrassler/pokedex/pkg/pokedex"
)

// errorBody is the JSON error shape. Retry tells the page to offer a retry
// button.
type errorBody struct {
	Error string `json:"error"`
	Retry bool   `json:"retry"`
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var nf *pokedex.NotFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.Is(err, pokedex.ErrInvalidRequest), errors.Is(err, pokedex.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrNotFound), errors.Is(err, pokeapi.ErrInvalidIdentifier):
		return http.StatusNotFound
	case errors.Is(err, client.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, client.ErrContextCancelled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// writeError answers with the JSON error shape. upstream is the
// user-facing message for failures of the upstream API; client errors
// report their own message.
func (s *Server) writeError(c *gin.Context, err error, upstream string) {
	status := statusFor(err)

	body := errorBody{Error: err.Error()}
	var nf *pokedex.NotFoundError
	switch {
	case errors.As(err, &nf):
		body.Error = nf.Error()
	case status == http.StatusNotFound:
		body.Error = "Pokemon not found"
	case status >= http.StatusInternalServerError:
		body.Error = upstream
		body.Retry = true
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg(upstream)
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest answers a malformed request.
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msg})
}
