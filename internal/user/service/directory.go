package service

import (
	"context"
	"strings"

	"direct-messaging/backend/internal/platform/errs"
	"direct-messaging/backend/internal/user/domain"
)

// Sentinel errors for the directory; the HTTP boundary maps them via errs.
var (
	ErrCredentialsRequired = errs.New(errs.InvalidArgument, "email and password are required")
	ErrUnknownEmail        = errs.New(errs.NotFound, "no account for that email")
	ErrBadCredential       = errs.New(errs.Unauthorized, "incorrect password")
	ErrSelfRequired        = errs.New(errs.InvalidArgument, "caller identity is required")
)

// UserRepo is the minimal user repository needed by the directory.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListExcept(ctx context.Context, selfID, selfEmail string) ([]*domain.User, error)
}

// PasswordVerifier compares a plaintext password with a stored hash in constant time.
type PasswordVerifier interface {
	Verify(hash, password string) (bool, error)
}

// Directory resolves credentials to identities and lists contacts.
type Directory struct {
	users  UserRepo
	hasher PasswordVerifier
}

// NewDirectory returns a Directory over users, verifying passwords with hasher.
func NewDirectory(users UserRepo, hasher PasswordVerifier) *Directory {
	return &Directory{users: users, hasher: hasher}
}

// Authenticate returns the identity for email when password matches its stored hash.
// Unknown email and wrong password are distinct errors.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.Identity{}, ErrCredentialsRequired
	}
	u, err := d.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.Identity{}, errs.Wrap(errs.Internal, err, "look up user")
	}
	if u == nil {
		return domain.Identity{}, ErrUnknownEmail
	}
	ok, err := d.hasher.Verify(u.PasswordHash, password)
	if err != nil {
		return domain.Identity{}, errs.Wrap(errs.Internal, err, "verify password")
	}
	if !ok {
		return domain.Identity{}, ErrBadCredential
	}
	return u.Identity(), nil
}

// ListOthers returns every identity except the caller's, ordered by name then id.
// The caller is excluded by id and by email. Empty slice when no one else exists.
func (d *Directory) ListOthers(ctx context.Context, selfID, selfEmail string) ([]domain.Identity, error) {
	selfID = strings.TrimSpace(selfID)
	if selfID == "" {
		return nil, ErrSelfRequired
	}
	list, err := d.users.ListExcept(ctx, selfID, domain.NormalizeEmail(selfEmail))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "list users")
	}
	out := make([]domain.Identity, 0, len(list))
	for _, u := range list {
		out = append(out, u.Identity())
	}
	return out, nil
}
