// Package respond writes JSON error responses for classified errors.
package respond

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"direct-messaging/backend/internal/platform/errs"
)

// Error aborts the request with the status and caller-safe message for err.
// Internal errors are logged with their detail, which never reaches the client.
func Error(c *gin.Context, err error) {
	if errs.KindOf(err) == errs.Internal {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(errs.HTTPStatus(err), gin.H{"error": errs.Message(err)})
}

// BadRequest aborts with 400 and message.
func BadRequest(c *gin.Context, message string) {
	Error(c, errs.New(errs.InvalidArgument, message))
}
