package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ReadinessChecker returns nil when the service can take traffic.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// Healthz answers 200 {"status":"ok"} or 503 {"status":"unavailable"}.
func Healthz(checker ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checker.Check(c.Request.Context()); err != nil {
			log.Warn().Err(err).Msg("health: not ready")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
