package domain

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// MaxContentRunes bounds a message body.
const MaxContentRunes = 4000

// Message is one persisted text message. Seq is the storage-assigned insertion order
// used to break created_at ties.
type Message struct {
	ID             string     `json:"id"`
	Seq            int64      `json:"-"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	ReceiverID     string     `json:"receiverId"`
	Content        string     `json:"content"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UnreadTally is the number of unread messages a receiver holds from one counterparty.
type UnreadTally struct {
	CounterpartyID string `json:"userId"`
	Count          int64  `json:"count"`
}

// ErrMalformedCursor is returned by DecodeCursor for any string EncodeCursor did not produce.
var ErrMalformedCursor = errors.New("malformed cursor")

// Cursor is a history position: the (created_at, seq) of the last message already seen.
type Cursor struct {
	CreatedAt time.Time
	Seq       int64
}

// CursorAfter returns the cursor positioned at m.
func CursorAfter(m *Message) Cursor {
	return Cursor{CreatedAt: m.CreatedAt, Seq: m.Seq}
}

// Encode returns the opaque form of c.
func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + "." + strconv.FormatInt(c.Seq, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor produced by Encode.
func DecodeCursor(s string) (Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrMalformedCursor
	}
	ts, seq, ok := strings.Cut(string(b), ".")
	if !ok {
		return Cursor{}, ErrMalformedCursor
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Cursor{}, ErrMalformedCursor
	}
	n, err := strconv.ParseInt(seq, 10, 64)
	if err != nil || n < 0 {
		return Cursor{}, ErrMalformedCursor
	}
	return Cursor{CreatedAt: time.Unix(0, nanos).UTC(), Seq: n}, nil
}

// Less reports whether a sorts before b in history order.
func Less(a, b *Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

// After reports whether m sorts strictly after c.
func (c Cursor) After(m *Message) bool {
	if !m.CreatedAt.Equal(c.CreatedAt) {
		return m.CreatedAt.After(c.CreatedAt)
	}
	return m.Seq > c.Seq
}
