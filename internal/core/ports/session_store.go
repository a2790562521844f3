package ports

import (
	"context"

	"github.com/clipstream/auth-service/internal/core/domain"
)

// SessionStore keeps short-lived login sessions in an external cache.
// Records expire after a fixed TTL; reading never extends it.
type SessionStore interface {
	// Create stores the triple under a fresh unguessable id and returns it.
	Create(ctx context.Context, userID, username string, role domain.Role) (string, error)
	// Get returns the stored triple, or an unauthorized domain error when the
	// session is unknown or expired.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
}
