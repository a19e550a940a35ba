package service

import (
	"context"
	"time"

	"direct-messaging/backend/internal/audit"
	"direct-messaging/backend/internal/platform/errs"
	"direct-messaging/backend/internal/security"
	userdomain "direct-messaging/backend/internal/user/domain"
)

// Authenticator resolves email/password to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (userdomain.Identity, error)
}

// TokenIssuer signs session credentials.
type TokenIssuer interface {
	Issue(sub security.Subject) (string, time.Time, error)
}

// LoginResult is a freshly issued session for User.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      userdomain.Identity
}

// AuthService issues session credentials for valid logins and records login/logout audit events.
type AuthService struct {
	directory Authenticator
	tokens    TokenIssuer
	audit     audit.AuditLogger
}

// NewAuthService returns an AuthService. auditLogger may be nil.
func NewAuthService(directory Authenticator, tokens TokenIssuer, auditLogger audit.AuditLogger) *AuthService {
	return &AuthService{directory: directory, tokens: tokens, audit: auditLogger}
}

// Login authenticates the credentials and returns a signed session credential.
// Directory errors are returned unchanged so callers can tell unknown email from bad password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ident, err := s.directory.Authenticate(ctx, email, password)
	if err != nil {
		if errs.KindOf(err) != errs.Internal {
			s.logEvent(ctx, "", audit.ActionLoginFailure, errs.KindOf(err).String())
		}
		return nil, err
	}
	token, exp, err := s.tokens.Issue(security.Subject{
		ID:    ident.ID,
		Name:  ident.Name,
		Email: ident.Email,
		Role:  string(ident.Role),
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "issue session")
	}
	s.logEvent(ctx, ident.ID, audit.ActionLoginSuccess, "")
	return &LoginResult{Token: token, ExpiresAt: exp, User: ident}, nil
}

// Logout records the end of a session. Credentials are stateless, so the caller clears the cookie.
// userID may be empty when the caller presented no valid credential.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	s.logEvent(ctx, userID, audit.ActionLogout, "")
}

func (s *AuthService) logEvent(ctx context.Context, userID, action, metadata string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, userID, action, audit.ResourceSession, metadata)
	}
}
