package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"direct-messaging/backend/internal/policy/engine"
	"direct-messaging/backend/internal/security"
	"direct-messaging/backend/internal/session"
)

// RouteClassifier decides how the gate treats a path.
type RouteClassifier interface {
	Classify(ctx context.Context, path string) (engine.RouteClass, error)
}

// TokenVerifier validates a session credential.
type TokenVerifier interface {
	Verify(token string) (*security.SessionClaims, error)
}

// GateConfig holds the redirect targets and the cookie the gate reads and clears.
type GateConfig struct {
	Cookie    session.CookieConfig
	LoginPath string
	HomePath  string
	// APIPrefixes selects the JSON 401 treatment when classification fails.
	APIPrefixes []string
}

// Gate enforces the session credential on protected routes. On success the verified claims
// are attached to the request context (see SessionFrom). A bad credential is cleared from the client.
func Gate(classifier RouteClassifier, verifier TokenVerifier, cfg GateConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		class, err := classifier.Classify(c.Request.Context(), path)
		if err != nil {
			class = engine.FailClosed(path, cfg.APIPrefixes)
			log.Error().Err(err).Str("path", path).Str("class", string(class)).Msg("gate: route classification failed")
		}

		switch class {
		case engine.ClassPublic, engine.ClassPassthrough:
			c.Next()
		case engine.ClassUnprotected:
			if _, ok := cfg.Cookie.Read(c.Request); ok {
				c.Redirect(http.StatusTemporaryRedirect, cfg.HomePath)
				c.Abort()
				return
			}
			c.Next()
		default:
			token, ok := cfg.Cookie.Read(c.Request)
			if !ok {
				reject(c, class, cfg, false)
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				log.Debug().Err(err).Str("path", path).Msg("gate: rejected credential")
				reject(c, class, cfg, true)
				return
			}
			c.Request = c.Request.WithContext(WithSession(c.Request.Context(), claims))
			c.Next()
		}
	}
}

func reject(c *gin.Context, class engine.RouteClass, cfg GateConfig, clearCookie bool) {
	if clearCookie {
		cfg.Cookie.Clear(c.Writer)
	}
	if class == engine.ClassProtectedAPI {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, cfg.LoginPath)
	c.Abort()
}
