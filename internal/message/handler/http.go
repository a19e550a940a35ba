// Package handler exposes the message ledger and unread summary over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"direct-messaging/backend/internal/message/domain"
	"direct-messaging/backend/internal/message/service"
	"direct-messaging/backend/internal/server/respond"
)

// Ledger is the subset of service.Ledger the handler uses.
type Ledger interface {
	Append(ctx context.Context, in service.AppendInput) (*domain.Message, error)
	History(ctx context.Context, conversationID string, page service.Page) (*service.HistoryPage, error)
	MarkRead(ctx context.Context, senderID, receiverID string) (int64, error)
}

// UnreadSummarizer returns per-sender unread tallies.
type UnreadSummarizer interface {
	UnreadBySender(ctx context.Context, receiverID string) (map[string]domain.UnreadTally, error)
}

// Handler serves the conversation-history, message-append and unread-summary routes.
type Handler struct {
	ledger     Ledger
	aggregator UnreadSummarizer
}

func NewHandler(ledger Ledger, aggregator UnreadSummarizer) *Handler {
	return &Handler{ledger: ledger, aggregator: aggregator}
}

type historyResponse struct {
	Messages   []*domain.Message `json:"messages"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// History returns the conversation's messages oldest first. Query: after (cursor), limit.
func (h *Handler) History(c *gin.Context) {
	page := service.Page{After: c.Query("after")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respond.BadRequest(c, "limit must be an integer")
			return
		}
		page.Limit = n
	}
	res, err := h.ledger.History(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{Messages: res.Messages, NextCursor: res.NextCursor})
}

type markReadRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// MarkRead marks everything senderId sent to receiverId as read.
func (h *Handler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	n, err := h.ledger.MarkRead(c.Request.Context(), req.SenderID, req.ReceiverID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

type appendRequest struct {
	ConversationID string `json:"conversationId"`
	Message        struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Message    string `json:"message"`
	} `json:"message"`
}

type appendResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Append stores a new message and answers 201 with its id and timestamp.
func (h *Handler) Append(c *gin.Context) {
	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid request body")
		return
	}
	m, err := h.ledger.Append(c.Request.Context(), service.AppendInput{
		ConversationID: req.ConversationID,
		SenderID:       req.Message.SenderID,
		ReceiverID:     req.Message.ReceiverID,
		Content:        req.Message.Message,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, appendResponse{ID: m.ID, CreatedAt: m.CreatedAt})
}

// UnreadSummary returns {unreadCounts:{senderId:{userId,count}}} for the receiverId query.
func (h *Handler) UnreadSummary(c *gin.Context) {
	counts, err := h.aggregator.UnreadBySender(c.Request.Context(), c.Query("receiverId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCounts": counts})
}
