package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps the set of live sessions in Redis so logout can revoke
// a token before it expires.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore wraps the redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Put records a session for the account with the given lifetime.
func (s *SessionStore) Put(ctx context.Context, sessionID, accountID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, accountID, ttl).Err()
}

// Exists reports whether the session is still live.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the session, invalidating any token that references it.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}
