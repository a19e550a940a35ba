package domain

import "time"

// Conversation is the single thread shared by an unordered pair of users.
// UserA is always the byte-wise smaller id.
type Conversation struct {
	ID        string    `json:"id"`
	UserA     string    `json:"userA"`
	UserB     string    `json:"userB"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanonicalPair orders two user ids so that the smaller (byte-wise) comes first.
func CanonicalPair(x, y string) (a, b string) {
	if y < x {
		return y, x
	}
	return x, y
}

// HasParticipants reports whether {x, y} is exactly the conversation's pair, in either order.
func (c *Conversation) HasParticipants(x, y string) bool {
	a, b := CanonicalPair(x, y)
	return c.UserA == a && c.UserB == b
}
