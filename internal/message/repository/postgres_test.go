package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	convdomain "direct-messaging/backend/internal/conversation/domain"
	"direct-messaging/backend/internal/db"
	"direct-messaging/backend/internal/db/dbtest"
	"direct-messaging/backend/internal/message/domain"
)

// newConversation creates two users and their conversation, returning the canonical pair.
func newConversation(t *testing.T, conn *sql.DB) (id, a, b string) {
	t.Helper()
	a, b = convdomain.CanonicalPair(dbtest.CreateUser(t, conn), dbtest.CreateUser(t, conn))
	id = uuid.New().String()
	_, err := conn.ExecContext(context.Background(),
		`INSERT INTO conversations (id, user_a, user_b, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		id, a, b, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("insert conversation: %v", err)
	}
	return id, a, b
}

func newMessage(convID, from, to string, at time.Time) *domain.Message {
	return &domain.Message{
		ID: uuid.New().String(), ConversationID: convID,
		SenderID: from, ReceiverID: to, Content: "hi", CreatedAt: at,
	}
}

func TestPostgresRepository_InsertUnknownConversation(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	_, a, b := newConversation(t, conn)

	_, err := repo.Insert(context.Background(), newMessage(uuid.New().String(), a, b, time.Now().UTC()))
	if !errors.Is(err, ErrConversationMissing) {
		t.Fatalf("err = %v, want %v", err, ErrConversationMissing)
	}
}

func TestPostgresRepository_InsertSelfMessage(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	convID, a, _ := newConversation(t, conn)

	_, err := repo.Insert(context.Background(), newMessage(convID, a, a, time.Now().UTC()))
	if !errors.Is(err, ErrMessageRejected) {
		t.Fatalf("err = %v, want %v", err, ErrMessageRejected)
	}
}

func TestPostgresRepository_InsertTouchesConversation(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	convID, a, b := newConversation(t, conn)

	late := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := repo.Insert(ctx, newMessage(convID, a, b, late)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	// A slower append stamped earlier must not pull updated_at back.
	if _, err := repo.Insert(ctx, newMessage(convID, b, a, late.Add(-time.Second))); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	var updated time.Time
	if err := conn.QueryRowContext(ctx, `SELECT updated_at FROM conversations WHERE id = $1`, convID).Scan(&updated); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !updated.Equal(late) {
		t.Errorf("updated_at = %v, want %v", updated, late)
	}
}

func TestPostgresRepository_HistoryTiesOrderedBySeq(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	convID, a, b := newConversation(t, conn)

	at := time.Now().UTC().Truncate(time.Microsecond)
	var inserted []*domain.Message
	for i := 0; i < 5; i++ {
		from, to := a, b
		if i%2 == 1 {
			from, to = b, a
		}
		m, err := repo.Insert(ctx, newMessage(convID, from, to, at))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		inserted = append(inserted, m)
	}

	all, err := repo.ListByConversation(ctx, convID)
	if err != nil {
		t.Fatalf("ListByConversation: %v", err)
	}
	if len(all) != len(inserted) {
		t.Fatalf("got %d messages, want %d", len(all), len(inserted))
	}
	for i := range all {
		if all[i].ID != inserted[i].ID {
			t.Errorf("position %d = %q, want %q", i, all[i].ID, inserted[i].ID)
		}
		if i > 0 && all[i].Seq <= all[i-1].Seq {
			t.Errorf("seq not ascending at %d: %d after %d", i, all[i].Seq, all[i-1].Seq)
		}
	}

	page, err := repo.ListAfter(ctx, convID, domain.CursorAfter(inserted[1]), 2)
	if err != nil {
		t.Fatalf("ListAfter: %v", err)
	}
	if len(page) != 2 || page[0].ID != inserted[2].ID || page[1].ID != inserted[3].ID {
		t.Errorf("page after second message = %v, want messages 3 and 4", ids(page))
	}
	rest, err := repo.ListAfter(ctx, convID, domain.CursorAfter(inserted[4]), 10)
	if err != nil || len(rest) != 0 {
		t.Errorf("page after last = %v, %v; want empty", ids(rest), err)
	}
}

func TestPostgresRepository_ReadStateNeverReverts(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	convID, a, b := newConversation(t, conn)

	m, err := repo.Insert(ctx, newMessage(convID, a, b, time.Now().UTC()))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n, err := repo.MarkRead(ctx, a, b, time.Now().UTC()); err != nil || n != 1 {
		t.Fatalf("MarkRead = %d, %v; want 1", n, err)
	}
	if n, err := repo.MarkRead(ctx, a, b, time.Now().UTC()); err != nil || n != 0 {
		t.Errorf("second MarkRead = %d, %v; want 0", n, err)
	}

	tests := []struct {
		name string
		stmt string
	}{
		{"unread flag", `UPDATE messages SET is_read = false WHERE id = $1`},
		{"unread flag and timestamp", `UPDATE messages SET is_read = false, read_at = NULL WHERE id = $1`},
		{"drop timestamp", `UPDATE messages SET read_at = NULL WHERE id = $1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conn.ExecContext(ctx, tt.stmt, m.ID)
			if !db.IsCheckViolation(err) {
				t.Errorf("err = %v, want check violation", err)
			}
		})
	}

	tallies, err := repo.CountUnreadBySender(ctx, b)
	if err != nil {
		t.Fatalf("CountUnreadBySender: %v", err)
	}
	if len(tallies) != 0 {
		t.Errorf("unread after MarkRead = %+v, want none", tallies)
	}
}

func TestPostgresRepository_CountUnreadBySender(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	convID, a, b := newConversation(t, conn)

	for i := 0; i < 3; i++ {
		if _, err := repo.Insert(ctx, newMessage(convID, a, b, time.Now().UTC())); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if _, err := repo.Insert(ctx, newMessage(convID, b, a, time.Now().UTC())); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	tallies, err := repo.CountUnreadBySender(ctx, b)
	if err != nil {
		t.Fatalf("CountUnreadBySender: %v", err)
	}
	if len(tallies) != 1 || tallies[0].CounterpartyID != a || tallies[0].Count != 3 {
		t.Errorf("tallies = %+v, want %s:3", tallies, a)
	}
}

func ids(list []*domain.Message) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.ID
	}
	return out
}
