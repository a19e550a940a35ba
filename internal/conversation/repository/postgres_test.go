package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"direct-messaging/backend/internal/conversation/domain"
	"direct-messaging/backend/internal/db"
	"direct-messaging/backend/internal/db/dbtest"
)

func newPair(x, y string) *domain.Conversation {
	a, b := domain.CanonicalPair(x, y)
	now := time.Now().UTC()
	return &domain.Conversation{ID: uuid.New().String(), UserA: a, UserB: b, CreatedAt: now, UpdatedAt: now}
}

func TestPostgresRepository_InsertOrGetConcurrent(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	x, y := dbtest.CreateUser(t, conn), dbtest.CreateUser(t, conn)

	const workers = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ids   = make(map[string]bool)
		fresh int
		start = make(chan struct{})
	)
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// Alternate argument order; storage must see one canonical pair.
			c := newPair(x, y)
			if i%2 == 1 {
				c = newPair(y, x)
			}
			stored, isNew, err := repo.InsertOrGet(context.Background(), c)
			if err != nil {
				errCh <- err
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[stored.ID] = true
			if isNew {
				fresh++
			}
		}(i)
	}
	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("InsertOrGet: %v", err)
	}

	if len(ids) != 1 {
		t.Errorf("resolved %d distinct ids, want 1: %v", len(ids), ids)
	}
	if fresh != 1 {
		t.Errorf("isNew reported %d times, want 1", fresh)
	}
	a, b := domain.CanonicalPair(x, y)
	var rows int
	if err := conn.QueryRowContext(context.Background(),
		`SELECT count(*) FROM conversations WHERE user_a = $1 AND user_b = $2`, a, b).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Errorf("conversation rows = %d, want 1", rows)
	}
}

func TestPostgresRepository_InsertOrGetExisting(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	x, y := dbtest.CreateUser(t, conn), dbtest.CreateUser(t, conn)

	first, isNew, err := repo.InsertOrGet(ctx, newPair(x, y))
	if err != nil || !isNew {
		t.Fatalf("first InsertOrGet: isNew=%v err=%v", isNew, err)
	}
	again, isNew, err := repo.InsertOrGet(ctx, newPair(y, x))
	if err != nil {
		t.Fatalf("second InsertOrGet: %v", err)
	}
	if isNew || again.ID != first.ID {
		t.Errorf("second InsertOrGet = %q (isNew=%v), want %q existing", again.ID, isNew, first.ID)
	}

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil || got == nil || got.UserA != first.UserA || got.UserB != first.UserB {
		t.Errorf("GetByID = %+v, %v", got, err)
	}
	missing, err := repo.GetByID(ctx, uuid.New().String())
	if err != nil || missing != nil {
		t.Errorf("GetByID(unknown) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestPostgresRepository_InsertOrGetUnknownUser(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	x := dbtest.CreateUser(t, conn)

	_, _, err := repo.InsertOrGet(context.Background(), newPair(x, "t-"+uuid.New().String()))
	if !errors.Is(err, ErrUnknownParticipant) {
		t.Fatalf("err = %v, want %v", err, ErrUnknownParticipant)
	}
}

func TestPostgresRepository_PairOrderConstraint(t *testing.T) {
	conn := dbtest.Open(t)
	x, y := dbtest.CreateUser(t, conn), dbtest.CreateUser(t, conn)
	a, b := domain.CanonicalPair(x, y)

	_, err := conn.ExecContext(context.Background(),
		`INSERT INTO conversations (id, user_a, user_b) VALUES ($1, $2, $3)`, uuid.New().String(), b, a)
	if !db.IsCheckViolation(err) {
		t.Fatalf("reversed pair err = %v, want check violation", err)
	}
}
