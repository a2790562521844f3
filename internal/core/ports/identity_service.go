package ports

import (
	"context"

	"github.com/clipstream/auth-service/internal/core/domain"
)

// AuthResult is what every successful login-shaped flow returns: the public
// view of the credential plus the freshly issued tokens and session id.
type AuthResult struct {
	User         domain.PublicView
	AccessToken  string
	RefreshToken string
	SessionID    string
}

// CredentialPatch carries the optional fields of an update request. Empty
// strings mean "leave unchanged". A password change requires OldPassword.
type CredentialPatch struct {
	Username    string
	Email       string
	NewPassword string
	OldPassword string
}

// IdentityService orchestrates the register / authenticate / update / delete
// flows over the credential store, token service, session store and event
// publisher.
type IdentityService interface {
	Register(ctx context.Context, username, email, password string) (*AuthResult, error)
	Authenticate(ctx context.Context, username, email, password string) (*AuthResult, error)
	AuthenticateByToken(ctx context.Context, token string) (*AuthResult, error)
	Update(ctx context.Context, id string, patch CredentialPatch) (*domain.PublicView, error)
	Delete(ctx context.Context, id string) error
}
