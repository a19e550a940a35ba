package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "direct-messaging/backend"

// Recorder counts domain events and forwards them to an EventEmitter.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	conversations metric.Int64Counter
	appended      metric.Int64Counter
	read          metric.Int64Counter
	emitter       EventEmitter
}

// NewRecorder creates the domain counters on mp's meter. emitter may be nil.
func NewRecorder(mp metric.MeterProvider, emitter EventEmitter) (*Recorder, error) {
	meter := mp.Meter(meterName)
	conversations, err := meter.Int64Counter("dm.conversations.created",
		metric.WithDescription("Conversations created by resolve"))
	if err != nil {
		return nil, err
	}
	appended, err := meter.Int64Counter("dm.messages.appended",
		metric.WithDescription("Messages appended to conversations"))
	if err != nil {
		return nil, err
	}
	read, err := meter.Int64Counter("dm.messages.read",
		metric.WithDescription("Messages transitioned from unread to read"))
	if err != nil {
		return nil, err
	}
	return &Recorder{conversations: conversations, appended: appended, read: read, emitter: emitter}, nil
}

// ConversationCreated records a newly created conversation between userA and userB.
func (r *Recorder) ConversationCreated(ctx context.Context, conversationID, userA, userB string) {
	if r == nil {
		return
	}
	r.conversations.Add(ctx, 1)
	r.emit(ctx, &Event{Type: EventConversationCreated, UserID: userA, CounterpartyID: userB, ConversationID: conversationID, Count: 1})
}

// MessageAppended records one appended message.
func (r *Recorder) MessageAppended(ctx context.Context, conversationID, senderID, receiverID string) {
	if r == nil {
		return
	}
	r.appended.Add(ctx, 1)
	r.emit(ctx, &Event{Type: EventMessageAppended, UserID: senderID, CounterpartyID: receiverID, ConversationID: conversationID, Count: 1})
}

// MessagesRead records n messages from senderID marked read by receiverID. n == 0 is not recorded.
func (r *Recorder) MessagesRead(ctx context.Context, senderID, receiverID string, n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.read.Add(ctx, n, metric.WithAttributes(attribute.Bool("bulk", n > 1)))
	r.emit(ctx, &Event{Type: EventMessagesRead, UserID: receiverID, CounterpartyID: senderID, Count: n})
}

func (r *Recorder) emit(ctx context.Context, e *Event) {
	if r.emitter == nil {
		return
	}
	e.CreatedAt = time.Now().UTC()
	EmitAsync(r.emitter, ctx, e)
}
