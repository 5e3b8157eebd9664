// Package session owns the portal's own login state. The upstream auth
// service authenticates users; we then mint a local session whose cookie
// value is "<sessionID>.<token>", storing only a bcrypt hash of the token
// server-side alongside the upstream cookie we forward on backend calls.
package session

import (
	"context"
	"time"
)

// Session is the server-side record behind one sid cookie.
type Session struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	// TokenHash is the bcrypt hash of the cookie's token half; the
	// plaintext token exists only in the client's cookie.
	TokenHash string `json:"tokenHash"`
	// BackendCookie is the upstream session cookie in "name=value" form.
	BackendCookie string    `json:"backendCookie"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its deadline.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store persists sessions. Implementations return sentinel.ErrNotFound for
// unknown or expired sessions.
type Store interface {
	Save(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}
