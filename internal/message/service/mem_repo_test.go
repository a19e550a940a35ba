package service

import (
	"context"
	"sort"
	"sync"
	"time"

	convdomain "direct-messaging/backend/internal/conversation/domain"
	"direct-messaging/backend/internal/message/domain"
	msgrepo "direct-messaging/backend/internal/message/repository"
)

// memMessageRepo mirrors the Postgres repository: seq is assigned on insert, history is
// ordered by (created_at, seq), and read flags never revert.
type memMessageRepo struct {
	mu        sync.Mutex
	seq       int64
	msgs      []*domain.Message
	convs     map[string]bool
	failErr   error
	touchedAt map[string]time.Time
}

func newMemMessageRepo(convIDs ...string) *memMessageRepo {
	r := &memMessageRepo{convs: make(map[string]bool), touchedAt: make(map[string]time.Time)}
	for _, id := range convIDs {
		r.convs[id] = true
	}
	return r
}

func (r *memMessageRepo) Insert(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	if !r.convs[m.ConversationID] {
		return nil, msgrepo.ErrConversationMissing
	}
	r.seq++
	stored := *m
	stored.Seq = r.seq
	stored.IsRead = false
	stored.ReadAt = nil
	r.msgs = append(r.msgs, &stored)
	if m.CreatedAt.After(r.touchedAt[m.ConversationID]) {
		r.touchedAt[m.ConversationID] = m.CreatedAt
	}
	out := stored
	return &out, nil
}

func (r *memMessageRepo) sorted(conversationID string) []*domain.Message {
	var out []*domain.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return domain.Less(out[i], out[j]) })
	return out
}

func (r *memMessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	return r.sorted(conversationID), nil
}

func (r *memMessageRepo) ListAfter(ctx context.Context, conversationID string, after domain.Cursor, limit int32) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	out := []*domain.Message{}
	for _, m := range r.sorted(conversationID) {
		if after.After(m) {
			out = append(out, m)
			if int32(len(out)) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memMessageRepo) MarkRead(ctx context.Context, senderID, receiverID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return 0, r.failErr
	}
	var n int64
	for _, m := range r.msgs {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			t := at
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (r *memMessageRepo) CountUnreadBySender(ctx context.Context, receiverID string) ([]domain.UnreadTally, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	counts := make(map[string]int64)
	for _, m := range r.msgs {
		if m.ReceiverID == receiverID && !m.IsRead {
			counts[m.SenderID]++
		}
	}
	out := make([]domain.UnreadTally, 0, len(counts))
	for sender, n := range counts {
		out = append(out, domain.UnreadTally{CounterpartyID: sender, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CounterpartyID < out[j].CounterpartyID })
	return out, nil
}

type stubConversations struct {
	byID map[string]*convdomain.Conversation
}

func (s *stubConversations) Get(ctx context.Context, id string) (*convdomain.Conversation, error) {
	if c, ok := s.byID[id]; ok {
		return c, nil
	}
	return nil, ErrConversationNotFound
}

// fixedClock returns successive instants; step 0 returns the same instant every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}
