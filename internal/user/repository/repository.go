package repository

import (
	"context"
	"errors"

	"direct-messaging/backend/internal/user/domain"
)

// ErrEmailTaken is returned by Upsert when another user already holds the email.
var ErrEmailTaken = errors.New("email already belongs to another user")

// Repository defines persistence for users. Users are provisioned out-of-band; Upsert
// exists for seeding.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListExcept returns every user whose id differs from selfID and whose email differs
	// from selfEmail, ordered by name then id.
	ListExcept(ctx context.Context, selfID, selfEmail string) ([]*domain.User, error)
	Upsert(ctx context.Context, u *domain.User) error
}
