package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	inserted []Session
	byID     map[string]Session
	count    int
}

func (f *fakeStore) Insert(ctx context.Context, s Session) error {
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (Session, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return Session{}, ErrNotFound
}

func (f *fakeStore) List(ctx context.Context) ([]Session, error) { return f.inserted, nil }
func (f *fakeStore) Count(ctx context.Context) (int, error)      { return f.count, nil }

func TestAcceptsAtWindow(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := Session{CreatedAt: base, ExpiresAt: base.Add(45 * time.Minute)}

	assert.True(t, s.AcceptsAt(base))
	assert.True(t, s.AcceptsAt(base.Add(44*time.Minute)))
	assert.True(t, s.AcceptsAt(s.ExpiresAt), "expiry instant is still inside the window")
	assert.False(t, s.AcceptsAt(s.ExpiresAt.Add(time.Nanosecond)))
	assert.False(t, s.AcceptsAt(s.ExpiresAt.Add(time.Hour)))
}

func TestAcceptsAtNeverReverses(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := Session{CreatedAt: base, ExpiresAt: base.Add(45 * time.Minute)}

	expired := false
	for now := base; now.Before(base.Add(2 * time.Hour)); now = now.Add(time.Minute) {
		if !s.AcceptsAt(now) {
			expired = true
		} else if expired {
			t.Fatalf("session became valid again at %v", now)
		}
	}
	assert.True(t, expired)
}

func TestCreateAssignsWindow(t *testing.T) {
	store := &fakeStore{}
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	reg := NewRegistry(store, 45*time.Minute).WithClock(func() time.Time { return now })

	s, err := reg.Create(context.Background(), "  Math  ", "teacher-1")
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Math", s.Subject, "subject is trimmed")
	assert.Equal(t, "teacher-1", s.CreatedBy)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now.Add(45*time.Minute), s.ExpiresAt)
	assert.True(t, s.ExpiresAt.After(s.CreatedAt))
	require.Len(t, store.inserted, 1)
	assert.Equal(t, s, store.inserted[0])
}

func TestCreateRejectsBlankSubject(t *testing.T) {
	store := &fakeStore{}
	reg := NewRegistry(store, 45*time.Minute)

	for _, subject := range []string{"", "   ", "\t\n"} {
		_, err := reg.Create(context.Background(), subject, "teacher-1")
		assert.ErrorIs(t, err, ErrEmptySubject)
	}
	assert.Empty(t, store.inserted, "nothing persisted on validation failure")
}

func TestCreateUniqueIDs(t *testing.T) {
	store := &fakeStore{}
	reg := NewRegistry(store, 45*time.Minute)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := reg.Create(context.Background(), "Physics", "teacher-1")
		require.NoError(t, err)
		assert.False(t, seen[s.ID], "id %s repeated", s.ID)
		seen[s.ID] = true
	}
}
