package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"direct-messaging/backend/internal/db"
	"direct-messaging/backend/internal/db/sqlc/gen"
	"direct-messaging/backend/internal/message/domain"
)

var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	queries *gen.Queries
}

// NewPostgresRepository returns a message repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{queries: gen.New(conn)}
}

// Insert persists m. The conversation's updated_at is raised to m.CreatedAt in the same
// statement, never lowered.
func (r *PostgresRepository) Insert(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	row, err := r.queries.CreateMessage(ctx, gen.CreateMessageParams{
		CreatedAt:      m.CreatedAt,
		ConversationID: m.ConversationID,
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.IsForeignKeyViolation(err) {
			return nil, ErrConversationMissing
		}
		if db.IsCheckViolation(err) {
			return nil, ErrMessageRejected
		}
		return nil, err
	}
	return genMessageToDomain(&row), nil
}

func (r *PostgresRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	list, err := r.queries.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return genMessagesToDomain(list), nil
}

func (r *PostgresRepository) ListAfter(ctx context.Context, conversationID string, after domain.Cursor, limit int32) ([]*domain.Message, error) {
	list, err := r.queries.ListMessagesAfter(ctx, gen.ListMessagesAfterParams{
		ConversationID: conversationID,
		AfterCreatedAt: after.CreatedAt,
		AfterSeq:       after.Seq,
		PageLimit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return genMessagesToDomain(list), nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, senderID, receiverID string, at time.Time) (int64, error) {
	n, err := r.queries.MarkMessagesRead(ctx, gen.MarkMessagesReadParams{
		ReadAt:     at,
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
	if db.IsCheckViolation(err) {
		return 0, ErrMessageRejected
	}
	return n, err
}

func (r *PostgresRepository) CountUnreadBySender(ctx context.Context, receiverID string) ([]domain.UnreadTally, error) {
	rows, err := r.queries.CountUnreadBySender(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UnreadTally, len(rows))
	for i, row := range rows {
		out[i] = domain.UnreadTally{CounterpartyID: row.SenderID, Count: row.Unread}
	}
	return out, nil
}

func genMessagesToDomain(list []gen.Message) []*domain.Message {
	out := make([]*domain.Message, len(list))
	for i := range list {
		out[i] = genMessageToDomain(&list[i])
	}
	return out
}

func genMessageToDomain(m *gen.Message) *domain.Message {
	if m == nil {
		return nil
	}
	var readAt *time.Time
	if m.ReadAt.Valid {
		t := m.ReadAt.Time
		readAt = &t
	}
	return &domain.Message{
		ID:             m.ID,
		Seq:            m.Seq,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		IsRead:         m.IsRead,
		ReadAt:         readAt,
		CreatedAt:      m.CreatedAt,
	}
}
