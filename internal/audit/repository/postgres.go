package repository

import (
	"context"
	"database/sql"

	"direct-messaging/backend/internal/audit/domain"
	"direct-messaging/backend/internal/db/sqlc/gen"
)

var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	queries *gen.Queries
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{queries: gen.New(db)}
}

// ListByUser returns the user's audit logs, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	list, err := r.queries.ListAuditLogsByUser(ctx, gen.ListAuditLogsByUserParams{
		UserID: sql.NullString{String: userID, Valid: true}, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.AuditLog, len(list))
	for i := range list {
		out[i] = genAuditLogToDomain(&list[i])
	}
	return out, nil
}

// Create persists the audit log to the database. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	uid := sql.NullString{String: a.UserID, Valid: a.UserID != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.queries.CreateAuditLog(ctx, gen.CreateAuditLogParams{
		ID: a.ID, UserID: uid, Action: a.Action, Resource: a.Resource,
		Ip: a.IP, Metadata: meta, CreatedAt: a.CreatedAt,
	})
	return err
}

func genAuditLogToDomain(a *gen.AuditLog) *domain.AuditLog {
	if a == nil {
		return nil
	}
	return &domain.AuditLog{
		ID: a.ID, UserID: a.UserID.String, Action: a.Action, Resource: a.Resource,
		IP: a.Ip, Metadata: a.Metadata.String, CreatedAt: a.CreatedAt,
	}
}
