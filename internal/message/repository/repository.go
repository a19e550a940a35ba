package repository

import (
	"context"
	"errors"
	"time"

	"direct-messaging/backend/internal/message/domain"
)

// ErrConversationMissing is returned by Insert when the conversation does not exist.
var ErrConversationMissing = errors.New("conversation does not exist")

// ErrMessageRejected is returned when storage refuses a message or a read-state change
// that breaks a row constraint: sender equal to receiver, or a read message going unread.
var ErrMessageRejected = errors.New("message rejected by storage constraint")

// Repository defines persistence for messages.
type Repository interface {
	// Insert stores m as unread and bumps its conversation's updated_at atomically.
	// Seq is assigned by storage and set on the returned message.
	Insert(ctx context.Context, m *domain.Message) (*domain.Message, error)
	// ListByConversation returns every message in (created_at, seq) order.
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error)
	// ListAfter returns up to limit messages strictly after cursor, in (created_at, seq) order.
	ListAfter(ctx context.Context, conversationID string, after domain.Cursor, limit int32) ([]*domain.Message, error)
	// MarkRead flips every unread sender→receiver message to read, stamping at. Returns rows changed.
	MarkRead(ctx context.Context, senderID, receiverID string, at time.Time) (int64, error)
	// CountUnreadBySender groups receiverID's unread messages by sender. Senders with zero are absent.
	CountUnreadBySender(ctx context.Context, receiverID string) ([]domain.UnreadTally, error)
}
