package repository

import (
	"context"
	"database/sql"
	"errors"

	"direct-messaging/backend/internal/db"
	"direct-messaging/backend/internal/db/sqlc/gen"
	"direct-messaging/backend/internal/user/domain"
)

var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	queries *gen.Queries
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{queries: gen.New(conn)}
}

// GetByEmail returns the user for email (case-insensitive), or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return genUserToDomain(&u), nil
}

func (r *PostgresRepository) ListExcept(ctx context.Context, selfID, selfEmail string) ([]*domain.User, error) {
	list, err := r.queries.ListUsersExcept(ctx, gen.ListUsersExceptParams{SelfID: selfID, SelfEmail: selfEmail})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, len(list))
	for i := range list {
		out[i] = genUserToDomain(&list[i])
	}
	return out, nil
}

// Upsert inserts u or overwrites the row with the same id. An email already held by
// another id yields ErrEmailTaken.
func (r *PostgresRepository) Upsert(ctx context.Context, u *domain.User) error {
	_, err := r.queries.UpsertUser(ctx, gen.UpsertUserParams{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	})
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func genUserToDomain(u *gen.User) *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         domain.Role(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
