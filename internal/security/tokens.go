package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken matches every *VerificationError via errors.Is.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret is returned when the signing secret is not configured.
	ErrEmptySecret = errors.New("session signing secret is empty")
)

// DefaultSessionTTL is the validity window used when none is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

// TokenErrorKind says why a session credential was rejected.
type TokenErrorKind uint8

const (
	TokenMalformed TokenErrorKind = iota + 1
	TokenBadSignature
	TokenExpired
	// TokenInvalidClaims covers a wrong issuer or a missing exp claim.
	TokenInvalidClaims
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMalformed:
		return "malformed"
	case TokenBadSignature:
		return "bad_signature"
	case TokenExpired:
		return "expired"
	case TokenInvalidClaims:
		return "invalid_claims"
	default:
		return "unknown"
	}
}

// VerificationError is returned by TokenCodec.Verify.
type VerificationError struct {
	Kind  TokenErrorKind
	cause error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("invalid token (%s): %v", e.Kind, e.cause)
}

func (e *VerificationError) Unwrap() error { return e.cause }

// Is reports ErrInvalidToken as a match so callers need not switch on Kind.
func (e *VerificationError) Is(target error) bool { return target == ErrInvalidToken }

// Subject is the identity embedded in a session credential.
type Subject struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// SessionClaims holds the JWT claims of a session credential.
type SessionClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Identity returns the subject carried by the claims.
func (c *SessionClaims) Identity() Subject {
	return Subject{ID: c.RegisteredClaims.Subject, Name: c.Name, Email: c.Email, Role: c.Role}
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for iat/exp and for expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// TokenCodec issues and verifies HS256 session credentials. It holds no mutable
// state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec returns a codec signing with secret. A non-positive ttl falls
// back to DefaultSessionTTL. The same ttl must drive the cookie lifetime.
func NewTokenCodec(secret, issuer string, ttl time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	c := &TokenCodec{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the credential validity window.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs a credential for sub. It fails only when the codec is misconfigured.
func (c *TokenCodec) Issue(sub Subject) (token string, expiresAt time.Time, err error) {
	if len(c.secret) == 0 {
		return "", time.Time{}, ErrEmptySecret
	}
	now := c.now().UTC().Truncate(time.Second)
	expiresAt = now.Add(c.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:  sub.Name,
		Email: sub.Email,
		Role:  sub.Role,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses token and checks signature, algorithm, issuer and expiry.
// Every failure is a *VerificationError.
func (c *TokenCodec) Verify(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, &VerificationError{Kind: classify(err), cause: err}
	}
	if !parsed.Valid || claims.RegisteredClaims.Subject == "" {
		return nil, &VerificationError{Kind: TokenInvalidClaims, cause: errors.New("missing subject")}
	}
	return claims, nil
}

func classify(err error) TokenErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return TokenBadSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return TokenInvalidClaims
	default:
		return TokenMalformed
	}
}
