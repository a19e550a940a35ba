package service

import (
	"context"
	"strings"

	"direct-messaging/backend/internal/message/domain"
	"direct-messaging/backend/internal/platform/errs"
)

// ErrReceiverRequired is returned when UnreadBySender has no receiver.
var ErrReceiverRequired = errs.New(errs.InvalidArgument, "receiverId is required")

// UnreadCounter groups a receiver's unread messages by sender.
type UnreadCounter interface {
	CountUnreadBySender(ctx context.Context, receiverID string) ([]domain.UnreadTally, error)
}

// Aggregator computes per-sender unread tallies on demand.
type Aggregator struct {
	counter UnreadCounter
}

func NewAggregator(counter UnreadCounter) *Aggregator {
	return &Aggregator{counter: counter}
}

// UnreadBySender maps each sender with at least one unread message for receiverID to its tally.
// Senders with nothing unread are absent.
func (a *Aggregator) UnreadBySender(ctx context.Context, receiverID string) (map[string]domain.UnreadTally, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, ErrReceiverRequired
	}
	rows, err := a.counter.CountUnreadBySender(ctx, receiverID)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "count unread")
	}
	out := make(map[string]domain.UnreadTally, len(rows))
	for _, row := range rows {
		if row.Count > 0 {
			out[row.CounterpartyID] = row
		}
	}
	return out, nil
}
