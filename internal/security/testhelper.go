package security

import "time"

// TestSecret signs credentials in unit tests only.
const TestSecret = "test-session-secret-do-not-use"

// NewTestTokenCodec returns a TokenCodec with TestSecret, issuer "test-issuer"
// and a one-hour window. For unit tests only.
func NewTestTokenCodec(opts ...CodecOption) *TokenCodec {
	c, err := NewTokenCodec(TestSecret, "test-issuer", time.Hour, opts...)
	if err != nil {
		panic(err)
	}
	return c
}
