package ports

import (
	"context"

	"github.com/clipstream/auth-service/internal/core/domain"
)

// EventPublisher emits credential change notifications to the event bus.
// Publishing is best-effort: failures are logged by the implementation and
// never surface to the caller, so a lost event cannot abort an identity
// transaction.
type EventPublisher interface {
	PublishCreated(ctx context.Context, cred *domain.Credential)
	PublishDeleted(ctx context.Context, cred *domain.Credential)
}
