package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"direct-messaging/backend/internal/audit"
	convdomain "direct-messaging/backend/internal/conversation/domain"
	msgrepo "direct-messaging/backend/internal/message/repository"
	"direct-messaging/backend/internal/platform/errs"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

func newTestLedger(step time.Duration) (*Ledger, *memMessageRepo) {
	repo := newMemMessageRepo("c1", "c2")
	convs := &stubConversations{byID: map[string]*convdomain.Conversation{
		"c1": {ID: "c1", UserA: "u1", UserB: "u2"},
		"c2": {ID: "c2", UserA: "u1", UserB: "u3"},
	}}
	l := NewLedger(repo, convs, nil, nil)
	l.now = fixedClock(t0, step)
	return l, repo
}

func TestLedger_Append(t *testing.T) {
	l, repo := newTestLedger(time.Second)
	m, err := l.Append(context.Background(), AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: "hi"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if m.ID == "" {
		t.Error("id should be generated")
	}
	if m.IsRead || m.ReadAt != nil {
		t.Error("new message should be unread")
	}
	if !m.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, t0)
	}
	if !repo.touchedAt["c1"].Equal(t0) {
		t.Errorf("conversation updated_at = %v, want %v", repo.touchedAt["c1"], t0)
	}
}

func TestLedger_AppendReverseDirection(t *testing.T) {
	l, _ := newTestLedger(time.Second)
	if _, err := l.Append(context.Background(), AppendInput{ConversationID: "c1", SenderID: "u2", ReceiverID: "u1", Content: "hey"}); err != nil {
		t.Fatalf("Append u2->u1: %v", err)
	}
}

func TestLedger_AppendErrors(t *testing.T) {
	l, _ := newTestLedger(time.Second)
	testCases := []struct {
		name    string
		in      AppendInput
		wantErr error
		kind    errs.Kind
	}{
		{"missing conversation", AppendInput{SenderID: "u1", ReceiverID: "u2", Content: "x"}, ErrConversationRequired, errs.InvalidArgument},
		{"missing sender", AppendInput{ConversationID: "c1", ReceiverID: "u2", Content: "x"}, ErrPartiesRequired, errs.InvalidArgument},
		{"missing receiver", AppendInput{ConversationID: "c1", SenderID: "u1", Content: "x"}, ErrPartiesRequired, errs.InvalidArgument},
		{"blank content", AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: " \n\t"}, ErrEmptyContent, errs.InvalidArgument},
		{"content too long", AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: strings.Repeat("é", 4001)}, ErrContentTooLong, errs.InvalidArgument},
		{"unknown conversation", AppendInput{ConversationID: "nope", SenderID: "u1", ReceiverID: "u2", Content: "x"}, ErrConversationNotFound, errs.NotFound},
		{"outsider sender", AppendInput{ConversationID: "c1", SenderID: "u3", ReceiverID: "u2", Content: "x"}, ErrNotParticipant, errs.InvalidArgument},
		{"self message", AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u1", Content: "x"}, ErrNotParticipant, errs.InvalidArgument},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Append(context.Background(), tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if errs.KindOf(err) != tc.kind {
				t.Errorf("kind = %v, want %v", errs.KindOf(err), tc.kind)
			}
		})
	}
}

func TestLedger_AppendMaxLength(t *testing.T) {
	l, _ := newTestLedger(time.Second)
	if _, err := l.Append(context.Background(), AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: strings.Repeat("é", 4000)}); err != nil {
		t.Fatalf("4000 runes should be accepted: %v", err)
	}
}

func TestLedger_AppendStorageFailure(t *testing.T) {
	l, repo := newTestLedger(time.Second)
	repo.failErr = errors.New("disk full")
	_, err := l.Append(context.Background(), AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: "x"})
	if errs.KindOf(err) != errs.Internal {
		t.Fatalf("err = %v, want internal", err)
	}
}

func TestLedger_AppendRejectedByStorage(t *testing.T) {
	l, repo := newTestLedger(time.Second)
	repo.failErr = msgrepo.ErrMessageRejected
	_, err := l.Append(context.Background(), AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: "x"})
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("err = %v, want %v", err, ErrNotParticipant)
	}
}

func TestLedger_HistoryOrder(t *testing.T) {
	// Every append gets the same instant, so order must come from seq.
	l, _ := newTestLedger(0)
	ctx := context.Background()
	var ids []string
	for i, content := range []string{"one", "two", "three"} {
		from, to := "u1", "u2"
		if i == 1 {
			from, to = to, from
		}
		m, err := l.Append(ctx, AppendInput{ConversationID: "c1", SenderID: from, ReceiverID: to, Content: content})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		ids = append(ids, m.ID)
	}
	if _, err := l.Append(ctx, AppendInput{ConversationID: "c2", SenderID: "u1", ReceiverID: "u3", Content: "elsewhere"}); err != nil {
		t.Fatalf("Append c2: %v", err)
	}

	page, err := l.History(ctx, "c1", Page{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(page.Messages) != 3 {
		t.Fatalf("len = %d, want 3", len(page.Messages))
	}
	for i, m := range page.Messages {
		if m.ID != ids[i] {
			t.Errorf("position %d = %q, want %q", i, m.ID, ids[i])
		}
	}
	if page.NextCursor != "" {
		t.Errorf("full history should not carry a cursor, got %q", page.NextCursor)
	}
}

func TestLedger_HistoryOutOfOrderTimestamps(t *testing.T) {
	l, _ := newTestLedger(time.Second)
	ctx := context.Background()
	first, _ := l.Append(ctx, AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: "later"})
	// Storage insertion order differs from timestamp order.
	l.now = fixedClock(t0.Add(-time.Hour), 0)
	second, _ := l.Append(ctx, AppendInput{ConversationID: "c1", SenderID: "u2", ReceiverID: "u1", Content: "earlier"})

	page, err := l.History(ctx, "c1", Page{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if page.Messages[0].ID != second.ID || page.Messages[1].ID != first.ID {
		t.Errorf("history should be ascending by created_at: got %q, %q", page.Messages[0].Content, page.Messages[1].Content)
	}
}

func TestLedger_HistoryEmpty(t *testing.T) {
	l, _ := newTestLedger(time.Second)
	for _, id := range []string{"c1", "unknown"} {
		page, err := l.History(context.Background(), id, Page{})
		if err != nil {
			t.Fatalf("History(%q): %v", id, err)
		}
		if page.Messages == nil || len(page.Messages) != 0 {
			t.Errorf("History(%q) = %#v, want empty non-nil", id, page.Messages)
		}
	}
}

func TestLedger_HistoryPaging(t *testing.T) {
	l, _ := newTestLedger(0)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := l.Append(ctx, AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: "m"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	full, _ := l.History(ctx, "c1", Page{})

	var got []string
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatal("paging did not terminate")
		}
		page, err := l.History(ctx, "c1", Page{After: cursor, Limit: 2})
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		for _, m := range page.Messages {
			got = append(got, m.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(got) != len(full.Messages) {
		t.Fatalf("paged %d messages, want %d", len(got), len(full.Messages))
	}
	for i := range got {
		if got[i] != full.Messages[i].ID {
			t.Errorf("position %d = %q, want %q", i, got[i], full.Messages[i].ID)
		}
	}
}

func TestLedger_HistoryCursorWithoutLimit(t *testing.T) {
	l, _ := newTestLedger(0)
	ctx := context.Background()
	for i := 0; i < MaxPageSize+2; i++ {
		if _, err := l.Append(ctx, AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: "m"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	first, err := l.History(ctx, "c1", Page{Limit: 1})
	if err != nil || first.NextCursor == "" {
		t.Fatalf("first page: cursor %q, err %v", first.NextCursor, err)
	}
	page, err := l.History(ctx, "c1", Page{After: first.NextCursor})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(page.Messages) != MaxPageSize {
		t.Errorf("got %d messages, want %d", len(page.Messages), MaxPageSize)
	}
	if page.NextCursor == "" {
		t.Error("one message remains; cursor should be set")
	}

	all, err := l.History(ctx, "c1", Page{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all.Messages) != MaxPageSize+2 || all.NextCursor != "" {
		t.Errorf("unpaged history = %d messages, cursor %q", len(all.Messages), all.NextCursor)
	}
}

func TestLedger_HistoryErrors(t *testing.T) {
	l, _ := newTestLedger(time.Second)
	if _, err := l.History(context.Background(), "", Page{}); !errors.Is(err, ErrConversationRequired) {
		t.Errorf("empty id err = %v", err)
	}
	if _, err := l.History(context.Background(), "c1", Page{After: "%%%"}); !errors.Is(err, ErrBadCursor) {
		t.Errorf("bad cursor err = %v", err)
	}
	if _, err := l.History(context.Background(), "c1", Page{Limit: -1}); !errors.Is(err, ErrBadLimit) {
		t.Errorf("negative limit err = %v", err)
	}
}

func TestLedger_MarkReadIdempotent(t *testing.T) {
	l, repo := newTestLedger(time.Second)
	rec := &recordingAudit{}
	l.audit = rec
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := l.Append(ctx, AppendInput{ConversationID: "c1", SenderID: "u1", ReceiverID: "u2", Content: "m"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if _, err := l.Append(ctx, AppendInput{ConversationID: "c1", SenderID: "u2", ReceiverID: "u1", Content: "reply"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	n, err := l.MarkRead(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if n != 3 {
		t.Errorf("first MarkRead = %d, want 3", n)
	}
	n, err = l.MarkRead(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if n != 0 {
		t.Errorf("second MarkRead = %d, want 0", n)
	}
	for _, m := range repo.msgs {
		if m.SenderID == "u1" && (!m.IsRead || m.ReadAt == nil) {
			t.Errorf("message %s should be read with read_at", m.ID)
		}
		if m.SenderID == "u2" && m.IsRead {
			t.Error("opposite direction must stay unread")
		}
	}
	if len(rec.actions) != 1 || rec.actions[0] != audit.ActionMessagesRead {
		t.Errorf("audit = %v, want one messages_read", rec.actions)
	}
}

func TestLedger_MarkReadErrors(t *testing.T) {
	l, repo := newTestLedger(time.Second)
	if _, err := l.MarkRead(context.Background(), "", "u2"); !errors.Is(err, ErrPartiesRequired) {
		t.Errorf("err = %v, want ErrPartiesRequired", err)
	}
	repo.failErr = errors.New("timeout")
	if _, err := l.MarkRead(context.Background(), "u1", "u2"); errs.KindOf(err) != errs.Internal {
		t.Errorf("err = %v, want internal", err)
	}
}
