package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"direct-messaging/backend/internal/audit/domain"
	"direct-messaging/backend/internal/server/middleware"
	"direct-messaging/backend/internal/server/respond"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Lister reads a user's audit trail, newest first.
type Lister interface {
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error)
}

// Handler serves /api/activity: the session user's own audit events.
type Handler struct {
	repo Lister
}

func NewHandler(repo Lister) *Handler {
	return &Handler{repo: repo}
}

// List returns {events:[...]} for the caller. Query: limit (default 50, max 100), offset.
func (h *Handler) List(c *gin.Context) {
	claims, ok := middleware.SessionFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	limit, ok := queryInt(c, "limit", defaultPageSize)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	events, err := h.repo.ListByUser(c.Request.Context(), claims.Identity().ID, limit, offset)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if events == nil {
		events = []*domain.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// queryInt parses a non-negative query value that must fit the repository's int32 paging.
func queryInt(c *gin.Context, key string, def int32) (int32, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		respond.BadRequest(c, key+" must be an integer between 0 and 2147483647")
		return 0, false
	}
	return int32(n), true
}
