package domain

import "time"

// IdempotencyKey derives the deterministic dedup key consumers use to drop
// duplicate deliveries of the same credential event.
func IdempotencyKey(credentialID string) string {
	return "idempotency_" + credentialID
}

// CredentialCreatedEvent is the payload published when a credential is
// registered.
type CredentialCreatedEvent struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// CredentialDeletedEvent is the payload published when a credential is
// removed.
type CredentialDeletedEvent struct {
	ID             string `json:"id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// NewCreatedEvent builds the create-event payload for a credential.
func NewCreatedEvent(c *Credential) CredentialCreatedEvent {
	return CredentialCreatedEvent{
		ID:             c.ID,
		Username:       c.Username,
		Email:          c.Email,
		CreatedAt:      c.CreatedAt,
		IdempotencyKey: IdempotencyKey(c.ID),
	}
}

// NewDeletedEvent builds the delete-event payload for a credential.
func NewDeletedEvent(c *Credential) CredentialDeletedEvent {
	return CredentialDeletedEvent{
		ID:             c.ID,
		IdempotencyKey: IdempotencyKey(c.ID),
	}
}
