package middleware

import (
	"context"

	"direct-messaging/backend/internal/security"
)

type contextKey struct{ name string }

var (
	sessionKey  = contextKey{"session"}
	clientIPKey = contextKey{"client_ip"}
	requestKey  = contextKey{"request_id"}
)

// WithSession returns a context carrying verified session claims.
func WithSession(ctx context.Context, claims *security.SessionClaims) context.Context {
	return context.WithValue(ctx, sessionKey, claims)
}

// SessionFrom returns the claims attached by the gate and true, or nil, false on unauthenticated requests.
func SessionFrom(ctx context.Context) (*security.SessionClaims, bool) {
	c, ok := ctx.Value(sessionKey).(*security.SessionClaims)
	return c, ok && c != nil
}

// WithClientIP returns a context carrying the caller's IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the caller's IP recorded by RequestContext, or "unknown".
// It matches audit.IPExtractor.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

// RequestID returns the request id recorded by RequestContext, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestKey).(string)
	return id
}
