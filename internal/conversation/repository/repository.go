package repository

import (
	"context"

	"direct-messaging/backend/internal/conversation/domain"
)

// Repository defines persistence for conversations.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	// InsertOrGet atomically creates c's canonical pair or returns the existing row.
	// isNew reports whether this call created it. A missing user yields ErrUnknownParticipant.
	InsertOrGet(ctx context.Context, c *domain.Conversation) (stored *domain.Conversation, isNew bool, err error)
}
