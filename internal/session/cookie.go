// Package session carries the session credential in an HTTP cookie.
package session

import (
	"net/http"
	"time"
)

// CookieConfig describes the credential cookie. MaxAge is the session validity window,
// the same duration the credential's exp claim is computed from.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// Set writes token as the credential cookie, expiring at expiresAt.
func (c CookieConfig) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     c.path(),
		Domain:   c.Domain,
		Expires:  expiresAt.UTC(),
		MaxAge:   int(c.MaxAge / time.Second),
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	})
}

// Clear instructs the client to drop the credential cookie.
func (c CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     c.path(),
		Domain:   c.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	})
}

// Read returns the credential cookie's value. ok is false when the cookie is absent or empty.
func (c CookieConfig) Read(r *http.Request) (token string, ok bool) {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}
