package session

import (
	"errors"
	"time"
)

// Session is one lecture occasion. It accepts attendance marks from its
// creation until ExpiresAt, inclusive, and is never mutated afterwards.
type Session struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AcceptsAt reports whether the session still accepts marks at the given
// time. It is a pure function of the stored expiry; expiry is never an event,
// only a comparison.
func (s Session) AcceptsAt(now time.Time) bool {
	return !now.After(s.ExpiresAt)
}

var (
	// ErrNotFound means no session exists under the given id.
	ErrNotFound = errors.New("session not found")
	// ErrEmptySubject rejects blank or whitespace-only subjects.
	ErrEmptySubject = errors.New("subject required")
)
