package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"direct-messaging/backend/internal/telemetry"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), &telemetry.Event{Type: "x"}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestEmit_NilEvent_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func TestEmit_AttributeMapping(t *testing.T) {
	cap := &recordCapture{}
	em := &otelEmitter{logger: cap}
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	event := &telemetry.Event{
		Type:           telemetry.EventMessagesRead,
		UserID:         "u2",
		CounterpartyID: "u1",
		Count:          4,
		CreatedAt:      created,
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := cap.rec
	if !rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), created)
	}
	if rec.Body().AsString() != telemetry.EventMessagesRead {
		t.Errorf("body = %q", rec.Body().AsString())
	}
	attrs := make(map[string]otellog.Value)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})
	if attrs["event_type"].AsString() != telemetry.EventMessagesRead {
		t.Errorf("event_type = %v", attrs["event_type"])
	}
	if attrs["user_id"].AsString() != "u2" || attrs["counterparty_id"].AsString() != "u1" {
		t.Errorf("attrs = %v", attrs)
	}
	if attrs["count"].AsInt64() != 4 {
		t.Errorf("count = %v", attrs["count"])
	}
	if _, ok := attrs["conversation_id"]; ok {
		t.Error("empty conversation_id should not be set")
	}
}

func TestEmit_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	cap := &recordCapture{}
	em := &otelEmitter{logger: cap}
	before := time.Now().UTC()
	if err := em.Emit(context.Background(), &telemetry.Event{Type: "t"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	after := time.Now().UTC()
	ts := cap.rec.Timestamp()
	if ts.Before(before) || ts.After(after) {
		t.Errorf("timestamp = %v, should be between %v and %v", ts, before, after)
	}
}
