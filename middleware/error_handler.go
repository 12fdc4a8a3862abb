package middleware

import (
	"time"

	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorHandlerMiddleware recovers panics and turns c.Errors into the unified envelope
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("panic", err).Str("path", c.Request.URL.Path).Msg("panic recovered")

				if !c.Writer.Written() {
					utils.InternalServerError(c, "internal server error")
				}
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			if !c.Writer.Written() {
				utils.ErrorFromService(c, err.Err)
			} else {
				log.Error().Err(err.Err).Str("path", c.Request.URL.Path).Msg("request error")
			}
		}
	}
}

// RequestLogger access log through zerolog
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
