package ports

import (
	"context"

	"github.com/clipstream/auth-service/internal/core/domain"
)

// CredentialTx exposes credential persistence within one open transaction.
// All reads and writes made through it either commit together or not at all.
type CredentialTx interface {
	// FindByUsernameOrEmail returns every credential matching either field.
	// Empty arguments never match. The union can return more than one row.
	FindByUsernameOrEmail(ctx context.Context, username, email string) ([]domain.Credential, error)
	FindByID(ctx context.Context, id string) (*domain.Credential, error)
	Insert(ctx context.Context, cred *domain.Credential) error
	Update(ctx context.Context, cred *domain.Credential) error
	Delete(ctx context.Context, cred *domain.Credential) error
}

// CredentialStore is the transactional unit-of-work over the durable store.
type CredentialStore interface {
	// InTx runs fn inside a transaction, committing when fn returns nil and
	// rolling back otherwise. Transactions never nest.
	InTx(ctx context.Context, fn func(tx CredentialTx) error) error
}
