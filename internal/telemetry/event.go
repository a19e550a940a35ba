// Package telemetry records messaging domain events as OTel metrics and log records.
package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Event types emitted by the core.
const (
	EventConversationCreated = "conversation_created"
	EventMessageAppended     = "message_appended"
	EventMessagesRead        = "messages_read"
)

// Event is a single domain occurrence. Content is never included.
type Event struct {
	Type           string
	UserID         string
	CounterpartyID string
	ConversationID string
	Count          int64
	CreatedAt      time.Time
}

// EventEmitter emits events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the servers stop before shutting down
// OTel providers so in-flight async emits can complete.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// emitter and event may be nil. Request cancellation does not abort an in-flight emit.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Warn().Err(err).Str("event_type", event.Type).Msg("telemetry: async emit failed")
		}
	}()
}
