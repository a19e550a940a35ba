package repository

import (
	"context"
	"database/sql"
	"errors"

	"direct-messaging/backend/internal/conversation/domain"
	"direct-messaging/backend/internal/db"
	"direct-messaging/backend/internal/db/sqlc/gen"
)

// ErrPairNotVisible is returned when neither the insert nor the fallback select produced a
// row after every attempt. It only happens under sustained concurrent inserts of the same pair.
var ErrPairNotVisible = errors.New("conversation pair not visible after retries")

// ErrUnknownParticipant is returned when either user of the pair does not exist.
var ErrUnknownParticipant = errors.New("conversation participant does not exist")

// insertOrGetAttempts bounds the READ COMMITTED retry in InsertOrGet.
const insertOrGetAttempts = 3

var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	queries *gen.Queries
}

// NewPostgresRepository returns a conversation repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{queries: gen.New(conn)}
}

// GetByID returns the conversation for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	c, err := r.queries.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return genConversationToDomain(&c), nil
}

// InsertOrGet inserts c (UserA < UserB) or returns the existing row for the pair.
// A statement that returns no row lost a race with an insert not yet visible to its
// snapshot; the next statement sees it.
func (r *PostgresRepository) InsertOrGet(ctx context.Context, c *domain.Conversation) (*domain.Conversation, bool, error) {
	for attempt := 0; attempt < insertOrGetAttempts; attempt++ {
		row, err := r.queries.InsertOrGetConversation(ctx, gen.InsertOrGetConversationParams{
			ID:        c.ID,
			UserA:     c.UserA,
			UserB:     c.UserB,
			CreatedAt: c.CreatedAt,
		})
		if err == nil {
			return &domain.Conversation{
				ID: row.ID, UserA: row.UserA, UserB: row.UserB,
				CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
			}, row.IsNew, nil
		}
		if db.IsForeignKeyViolation(err) {
			return nil, false, ErrUnknownParticipant
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, err
		}
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
	}
	return nil, false, ErrPairNotVisible
}

func genConversationToDomain(c *gen.Conversation) *domain.Conversation {
	if c == nil {
		return nil
	}
	return &domain.Conversation{
		ID:        c.ID,
		UserA:     c.UserA,
		UserB:     c.UserB,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
