package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex/pkg/metrics"
)

// requestLogger logs every request and records its metrics.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		metrics.ObserveRequest(c.FullPath(), c.Request.Method, status, duration)

		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = s.logger.Error()
		case status >= http.StatusBadRequest:
			event = s.logger.Warn()
		default:
			event = s.logger.Debug()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Int("bytes", c.Writer.Size()).
			Msg("HTTP request")
	}
}

// recovery turns a handler panic into a 500 response.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("Handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
	})
}
