package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"direct-messaging/backend/internal/audit"
	"direct-messaging/backend/internal/conversation/domain"
	convrepo "direct-messaging/backend/internal/conversation/repository"
	"direct-messaging/backend/internal/platform/errs"
	"direct-messaging/backend/internal/telemetry"
)

// Sentinel errors for conversation resolution.
var (
	ErrParticipantRequired  = errs.New(errs.InvalidArgument, "userA and userB are required")
	ErrSelfConversation     = errs.New(errs.InvalidArgument, "userA and userB must differ")
	ErrUnknownUser          = errs.New(errs.NotFound, "user not found")
	ErrConversationRequired = errs.New(errs.InvalidArgument, "conversation id is required")
	ErrConversationNotFound = errs.New(errs.NotFound, "conversation not found")
)

// Repo is the conversation persistence the resolver needs.
type Repo interface {
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	InsertOrGet(ctx context.Context, c *domain.Conversation) (*domain.Conversation, bool, error)
}

// Resolution is the outcome of Resolve. IsNew is true only for the call that created the row.
type Resolution struct {
	Conversation *domain.Conversation
	IsNew        bool
}

// Resolver maps an unordered user pair to its single conversation, creating it on first use.
type Resolver struct {
	repo     Repo
	audit    audit.AuditLogger
	recorder *telemetry.Recorder
	now      func() time.Time
}

// NewResolver returns a Resolver. auditLogger and recorder may be nil.
func NewResolver(repo Repo, auditLogger audit.AuditLogger, recorder *telemetry.Recorder) *Resolver {
	return &Resolver{repo: repo, audit: auditLogger, recorder: recorder, now: time.Now}
}

// Resolve returns the conversation for {userA, userB}, creating it if absent.
// Concurrent calls for the same pair, in either order, converge on one conversation.
func (r *Resolver) Resolve(ctx context.Context, userA, userB string) (*Resolution, error) {
	userA, userB = strings.TrimSpace(userA), strings.TrimSpace(userB)
	if userA == "" || userB == "" {
		return nil, ErrParticipantRequired
	}
	if userA == userB {
		return nil, ErrSelfConversation
	}
	a, b := domain.CanonicalPair(userA, userB)
	now := r.now().UTC()
	stored, isNew, err := r.repo.InsertOrGet(ctx, &domain.Conversation{
		ID:        uuid.New().String(),
		UserA:     a,
		UserB:     b,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, convrepo.ErrUnknownParticipant) {
			return nil, ErrUnknownUser
		}
		return nil, errs.Wrap(errs.Internal, err, "resolve conversation")
	}
	if isNew {
		if r.audit != nil {
			r.audit.LogEvent(ctx, userA, audit.ActionConversationCreated, audit.ResourceConversation, stored.ID)
		}
		r.recorder.ConversationCreated(ctx, stored.ID, stored.UserA, stored.UserB)
	}
	return &Resolution{Conversation: stored, IsNew: isNew}, nil
}

// Get returns the conversation with id.
func (r *Resolver) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrConversationRequired
	}
	c, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "get conversation")
	}
	if c == nil {
		return nil, ErrConversationNotFound
	}
	return c, nil
}
