package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clipstream/auth-service/internal/core/domain"
	"github.com/clipstream/auth-service/internal/core/ports"
)

// SessionStore keeps login sessions in Redis under session:<uuid> keys with
// a fixed TTL. Redis evicts on expiry; no renewal or sliding expiration.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore writing records with the given TTL.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create stores the identity triple under a fresh random id and returns it.
func (s *SessionStore) Create(ctx context.Context, userID, username string, role domain.Role) (string, error) {
	sessionID := uuid.NewString()

	data, err := json.Marshal(domain.Session{
		UserID:   userID,
		Username: username,
		Role:     role,
	})
	if err != nil {
		return "", fmt.Errorf("serialize session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return sessionID, nil
}

// Get returns the stored triple, or unauthorized when the session is unknown
// or already expired. Reading does not extend the TTL.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewUnauthorized("Session expired or not found")
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}

var _ ports.SessionStore = (*SessionStore)(nil)
