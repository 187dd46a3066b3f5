package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/session"
)

// SessionGetter resolves scanned session ids.
type SessionGetter interface {
	Get(ctx context.Context, id string) (session.Session, error)
}

// Store is the persistence surface the ledger needs. Insert must be a
// conditional write on the composite key; a plain read-then-write would race
// under concurrent marks.
type Store interface {
	Insert(ctx context.Context, rec Record) (bool, error)
	ListForStudent(ctx context.Context, studentID string) ([]Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	ListSince(ctx context.Context, cutoff time.Time) ([]Record, error)
}

// Ledger records at most one presence per (session, student) pair.
type Ledger struct {
	sessions SessionGetter
	store    Store
	now      func() time.Time
}

// NewLedger creates a ledger.
func NewLedger(sessions SessionGetter, store Store) *Ledger {
	return &Ledger{sessions: sessions, store: store, now: time.Now}
}

// WithClock replaces the ledger clock, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Mark records attendance for a scanned code. The check order is fixed:
// unknown session, then expired window, then duplicate. A late duplicate scan
// therefore reports expiry, not the duplicate.
func (l *Ledger) Mark(ctx context.Context, code, studentID, studentName string) (Record, error) {
	// The code comes off a camera and is untrusted until it parses.
	if _, err := uuid.Parse(code); err != nil {
		return Record{}, ErrInvalidSession
	}

	s, err := l.sessions.Get(ctx, code)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Record{}, ErrInvalidSession
		}
		return Record{}, err
	}

	now := l.now().UTC()
	if !s.AcceptsAt(now) {
		return Record{}, ErrSessionExpired
	}

	subject := s.Subject
	if subject == "" {
		subject = "Unknown"
	}
	rec := Record{
		SessionID:   s.ID,
		StudentID:   studentID,
		StudentName: studentName,
		Subject:     subject,
		MarkedAt:    now,
		Status:      StatusPresent,
	}
	inserted, err := l.store.Insert(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	if !inserted {
		return Record{}, ErrAlreadyMarked
	}
	return rec, nil
}

// ListForStudent returns a student's records, newest first.
func (l *Ledger) ListForStudent(ctx context.Context, studentID string) ([]Record, error) {
	return l.store.ListForStudent(ctx, studentID)
}

// List returns filtered records, newest first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]Record, error) {
	return l.store.List(ctx, f)
}

// ListSince returns records stamped at or after cutoff.
func (l *Ledger) ListSince(ctx context.Context, cutoff time.Time) ([]Record, error) {
	return l.store.ListSince(ctx, cutoff)
}
