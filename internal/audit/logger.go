package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"direct-messaging/backend/internal/audit/domain"
)

// Actions recorded by the messaging backend.
const (
	ActionLoginSuccess        = "login_success"
	ActionLoginFailure        = "login_failure"
	ActionLogout              = "logout"
	ActionConversationCreated = "conversation_created"
	ActionMessagesRead        = "messages_read"
)

// Resources the actions apply to.
const (
	ResourceSession      = "session"
	ResourceConversation = "conversation"
	ResourceMessage      = "message"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
}

// Creator is the subset of the audit repository the logger writes through.
type Creator interface {
	Create(ctx context.Context, a *domain.AuditLog) error
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        Creator
	ipExtractor IPExtractor
	now         func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo Creator, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, now: time.Now}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
// The write is detached from ctx cancellation so a finished request still records its event.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := l.repo.Create(writeCtx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Str("resource", resource).Msg("audit: failed to log event")
	}
}
