package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// SubjectIndex keeps the set of subjects seen in attendance records, used to
// populate the admin filter dropdown. It is advisory only: losing it is safe
// because it can be rebuilt from the ledger at any time.
type SubjectIndex struct {
	client *redis.Client
	key    string
}

// NewSubjectIndex creates an index over the given redis client.
func NewSubjectIndex(client *redis.Client, key string) *SubjectIndex {
	if key == "" {
		key = "rollcall:subjects"
	}
	return &SubjectIndex{client: client, key: key}
}

// Add records a subject.
func (s *SubjectIndex) Add(ctx context.Context, subject string) error {
	if subject == "" {
		return nil
	}
	return s.client.SAdd(ctx, s.key, subject).Err()
}

// Members returns all known subjects, unordered.
func (s *SubjectIndex) Members(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.key).Result()
}

// Rebuild replaces the set with the given subjects.
func (s *SubjectIndex) Rebuild(ctx context.Context, subjects []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	for _, sub := range subjects {
		if sub != "" {
			pipe.SAdd(ctx, s.key, sub)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}
