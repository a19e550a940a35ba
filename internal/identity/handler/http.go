// Package handler exposes login, logout and session lookup over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"direct-messaging/backend/internal/identity/service"
	"direct-messaging/backend/internal/security"
	"direct-messaging/backend/internal/server/middleware"
	"direct-messaging/backend/internal/server/respond"
	"direct-messaging/backend/internal/session"
	userdomain "direct-messaging/backend/internal/user/domain"
)

// Authenticator is the subset of service.AuthService the handler uses.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, userID string)
}

// Handler serves /api/login, /api/logout and /api/session.
type Handler struct {
	auth     Authenticator
	verifier middleware.TokenVerifier
	cookie   session.CookieConfig
}

// NewHandler returns a Handler. verifier is used on logout to attribute the audit event.
func NewHandler(auth Authenticator, verifier middleware.TokenVerifier, cookie session.CookieConfig) *Handler {
	return &Handler{auth: auth, verifier: verifier, cookie: cookie}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the body's credentials and sets the session cookie.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.cookie.Set(c.Writer, res.Token, res.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"user": res.User})
}

// Logout clears the session cookie. It succeeds with or without a valid session.
func (h *Handler) Logout(c *gin.Context) {
	var userID string
	if token, ok := h.cookie.Read(c.Request); ok && h.verifier != nil {
		if claims, err := h.verifier.Verify(token); err == nil {
			userID = claims.Identity().ID
		}
	}
	h.auth.Logout(c.Request.Context(), userID)
	h.cookie.Clear(c.Writer)
	c.Status(http.StatusNoContent)
}

// Session returns the identity carried by the verified credential.
func (h *Handler) Session(c *gin.Context) {
	claims, ok := middleware.SessionFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identityOf(claims)})
}

func identityOf(claims *security.SessionClaims) userdomain.Identity {
	s := claims.Identity()
	return userdomain.Identity{ID: s.ID, Name: s.Name, Email: s.Email, Role: userdomain.Role(s.Role)}
}
