// Package dbtest opens a migrated Postgres database for repository tests. Tests that use it
// are skipped when DATABASE_URL is not set.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"direct-messaging/backend/internal/db"
	"direct-messaging/backend/internal/db/migrate"
)

// Open migrates DATABASE_URL up and returns a pool closed at test cleanup.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping live database test")
	}
	if err := migrate.Run(dsn, migrate.Up); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := db.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// CreateUser inserts a user with a fresh id and removes it, with its conversations and
// messages, at test cleanup.
func CreateUser(t *testing.T, conn *sql.DB) string {
	t.Helper()
	id := "t-" + uuid.New().String()
	_, err := conn.ExecContext(context.Background(),
		`INSERT INTO users (id, name, email, password_hash) VALUES ($1, $1, $1 || '@test.local', 'x')`, id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = conn.ExecContext(ctx, `DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`, id)
		_, _ = conn.ExecContext(ctx, `DELETE FROM conversations WHERE user_a = $1 OR user_b = $1`, id)
		_, _ = conn.ExecContext(ctx, `DELETE FROM audit_logs WHERE user_id = $1`, id)
		_, _ = conn.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}
