package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"direct-messaging/backend/internal/conversation/service"
	"direct-messaging/backend/internal/server/respond"
)

// PairResolver returns the conversation for an unordered user pair.
type PairResolver interface {
	Resolve(ctx context.Context, userA, userB string) (*service.Resolution, error)
}

// Handler serves /api/conversation-resolve.
type Handler struct {
	resolver PairResolver
}

func NewHandler(resolver PairResolver) *Handler {
	return &Handler{resolver: resolver}
}

type resolveRequest struct {
	UserA string `json:"userA"`
	UserB string `json:"userB"`
}

type resolveResponse struct {
	ConversationID string `json:"conversationId"`
	IsNew          bool   `json:"isNew"`
}

// Resolve finds or creates the conversation between userA and userB.
func (h *Handler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.resolver.Resolve(c.Request.Context(), req.UserA, req.UserB)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resolveResponse{ConversationID: res.Conversation.ID, IsNew: res.IsNew})
}
