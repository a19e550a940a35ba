package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"direct-messaging/backend/internal/server/middleware"
	"direct-messaging/backend/internal/server/respond"
	"direct-messaging/backend/internal/user/domain"
)

// ContactLister lists every identity except the caller.
type ContactLister interface {
	ListOthers(ctx context.Context, selfID, selfEmail string) ([]domain.Identity, error)
}

// Handler serves /api/contacts.
type Handler struct {
	directory ContactLister
}

func NewHandler(directory ContactLister) *Handler {
	return &Handler{directory: directory}
}

// Contacts returns {users:[...]} for the session's user.
func (h *Handler) Contacts(c *gin.Context) {
	claims, ok := middleware.SessionFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	self := claims.Identity()
	users, err := h.directory.ListOthers(c.Request.Context(), self.ID, self.Email)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
