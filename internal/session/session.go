// Package session carries the authenticated identity of a request as a typed
// value instead of a shared mutable map.
package session

import (
	"context"
	"time"
)

// Session is the per-request view of who is signed in. The zero value is an
// anonymous, unauthenticated session.
type Session struct {
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// Actor is the identity recorded against store operations.
func (s Session) Actor() string {
	if !s.Authenticated || s.Username == "" {
		return "anonymous"
	}
	return s.Username
}

type ctxKey struct{}

// With returns ctx carrying s.
func With(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the session stored in ctx, or an anonymous session.
func From(ctx context.Context) Session {
	s, _ := ctx.Value(ctxKey{}).(Session)
	return s
}
