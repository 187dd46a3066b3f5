package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence surface the registry needs.
type Store interface {
	Insert(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	List(ctx context.Context) ([]Session, error)
	Count(ctx context.Context) (int, error)
}

// Registry creates and looks up sessions.
type Registry struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewRegistry creates a registry. ttl is the attendance-acceptance window
// applied to every new session.
func NewRegistry(store Store, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 45 * time.Minute
	}
	return &Registry{store: store, ttl: ttl, now: time.Now}
}

// WithClock replaces the registry clock, for tests.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Create opens a new session for subject. The subject must be non-blank; the
// window is fixed at creation and the session is immutable afterwards.
func (r *Registry) Create(ctx context.Context, subject, creatorID string) (Session, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Session{}, ErrEmptySubject
	}
	now := r.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		Subject:   subject,
		CreatedBy: creatorID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	if err := r.store.Insert(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Get is a pure lookup.
func (r *Registry) Get(ctx context.Context, id string) (Session, error) {
	return r.store.Get(ctx, id)
}

// List returns every session ever created.
func (r *Registry) List(ctx context.Context) ([]Session, error) {
	return r.store.List(ctx)
}

// Count returns the number of sessions ever created.
func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}
