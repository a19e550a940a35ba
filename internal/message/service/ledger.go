package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"direct-messaging/backend/internal/audit"
	convdomain "direct-messaging/backend/internal/conversation/domain"
	"direct-messaging/backend/internal/message/domain"
	msgrepo "direct-messaging/backend/internal/message/repository"
	"direct-messaging/backend/internal/platform/errs"
	"direct-messaging/backend/internal/telemetry"
)

// MaxPageSize caps History's Limit.
const MaxPageSize = 500

// Sentinel errors for the ledger.
var (
	ErrConversationRequired = errs.New(errs.InvalidArgument, "conversationId is required")
	ErrPartiesRequired      = errs.New(errs.InvalidArgument, "senderId and receiverId are required")
	ErrEmptyContent         = errs.New(errs.InvalidArgument, "message must not be empty")
	ErrContentTooLong       = errs.New(errs.InvalidArgument, "message exceeds 4000 characters")
	ErrNotParticipant       = errs.New(errs.InvalidArgument, "sender and receiver must be the conversation's participants")
	ErrConversationNotFound = errs.New(errs.NotFound, "conversation not found")
	ErrBadCursor            = errs.New(errs.InvalidArgument, "malformed cursor")
	ErrBadLimit             = errs.New(errs.InvalidArgument, "limit must not be negative")
)

// MessageRepo is the message persistence the ledger needs.
type MessageRepo interface {
	Insert(ctx context.Context, m *domain.Message) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error)
	ListAfter(ctx context.Context, conversationID string, after domain.Cursor, limit int32) ([]*domain.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID string, at time.Time) (int64, error)
}

// ConversationLookup fetches a conversation by id, returning a NotFound-kind error when absent.
type ConversationLookup interface {
	Get(ctx context.Context, id string) (*convdomain.Conversation, error)
}

// AppendInput is a message to add to a conversation.
type AppendInput struct {
	ConversationID string
	SenderID       string
	ReceiverID     string
	Content        string
}

// Page selects a slice of history. With neither Limit nor After set, the whole history
// is returned unpaged. Otherwise a page holds at most Limit messages, capped at
// MaxPageSize, and Limit 0 means MaxPageSize.
type Page struct {
	After string
	Limit int
}

// HistoryPage is one page of history. NextCursor is empty when no more messages follow.
type HistoryPage struct {
	Messages   []*domain.Message
	NextCursor string
}

// Ledger appends messages, serves ordered history, and records read receipts.
type Ledger struct {
	messages      MessageRepo
	conversations ConversationLookup
	audit         audit.AuditLogger
	recorder      *telemetry.Recorder
	now           func() time.Time
}

// NewLedger returns a Ledger. auditLogger and recorder may be nil.
func NewLedger(messages MessageRepo, conversations ConversationLookup, auditLogger audit.AuditLogger, recorder *telemetry.Recorder) *Ledger {
	return &Ledger{
		messages:      messages,
		conversations: conversations,
		audit:         auditLogger,
		recorder:      recorder,
		now:           time.Now,
	}
}

// Append stores a new unread message. Sender and receiver must be the conversation's
// two participants, in either order.
func (l *Ledger) Append(ctx context.Context, in AppendInput) (*domain.Message, error) {
	in.ConversationID = strings.TrimSpace(in.ConversationID)
	in.SenderID = strings.TrimSpace(in.SenderID)
	in.ReceiverID = strings.TrimSpace(in.ReceiverID)
	if in.ConversationID == "" {
		return nil, ErrConversationRequired
	}
	if in.SenderID == "" || in.ReceiverID == "" {
		return nil, ErrPartiesRequired
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(in.Content) > domain.MaxContentRunes {
		return nil, ErrContentTooLong
	}

	conv, err := l.conversations.Get(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if in.SenderID == in.ReceiverID || !conv.HasParticipants(in.SenderID, in.ReceiverID) {
		return nil, ErrNotParticipant
	}

	stored, err := l.messages.Insert(ctx, &domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Content:        in.Content,
		CreatedAt:      l.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, msgrepo.ErrConversationMissing) {
			return nil, ErrConversationNotFound
		}
		if errors.Is(err, msgrepo.ErrMessageRejected) {
			return nil, ErrNotParticipant
		}
		return nil, errs.Wrap(errs.Internal, err, "append message")
	}
	l.recorder.MessageAppended(ctx, conv.ID, in.SenderID, in.ReceiverID)
	return stored, nil
}

// History returns the conversation's messages ascending by (created_at, seq).
// An unknown conversation has an empty history.
func (l *Ledger) History(ctx context.Context, conversationID string, page Page) (*HistoryPage, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, ErrConversationRequired
	}
	if page.Limit < 0 {
		return nil, ErrBadLimit
	}
	var after *domain.Cursor
	if page.After != "" {
		c, err := domain.DecodeCursor(page.After)
		if err != nil {
			return nil, ErrBadCursor
		}
		after = &c
	}

	if page.Limit == 0 && after == nil {
		list, err := l.messages.ListByConversation(ctx, conversationID)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, err, "load history")
		}
		return &HistoryPage{Messages: nonNil(list)}, nil
	}

	limit := page.Limit
	if limit == 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	start := domain.Cursor{}
	if after != nil {
		start = *after
	}
	// One extra row tells us whether another page follows.
	list, err := l.messages.ListAfter(ctx, conversationID, start, int32(limit+1))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "load history")
	}
	out := &HistoryPage{Messages: nonNil(list)}
	if len(list) > limit {
		out.Messages = list[:limit]
		out.NextCursor = domain.CursorAfter(list[limit-1]).Encode()
	}
	return out, nil
}

// MarkRead marks every unread message from senderID to receiverID as read and returns how
// many changed. Repeating the call returns 0.
func (l *Ledger) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	senderID, receiverID = strings.TrimSpace(senderID), strings.TrimSpace(receiverID)
	if senderID == "" || receiverID == "" {
		return 0, ErrPartiesRequired
	}
	n, err := l.messages.MarkRead(ctx, senderID, receiverID, l.now().UTC())
	if err != nil {
		return 0, errs.Wrap(errs.Internal, err, "mark read")
	}
	if n > 0 {
		if l.audit != nil {
			l.audit.LogEvent(ctx, receiverID, audit.ActionMessagesRead, audit.ResourceMessage, senderID)
		}
		l.recorder.MessagesRead(ctx, senderID, receiverID, n)
	}
	return n, nil
}

func nonNil(list []*domain.Message) []*domain.Message {
	if list == nil {
		return []*domain.Message{}
	}
	return list
}
