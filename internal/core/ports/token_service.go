package ports

import (
	"time"

	"github.com/clipstream/auth-service/internal/core/domain"
)

// TokenClaims is the verified content of a signed token.
type TokenClaims struct {
	UserID    string
	Username  string
	Role      domain.Role
	ExpiresAt time.Time
}

// TokenService issues and validates stateless signed tokens. Tokens are not
// revocable; staleness is caught by callers re-checking the credential store.
type TokenService interface {
	Issue(userID, username string, role domain.Role, ttl time.Duration) (string, error)
	Validate(token string) (*TokenClaims, error)
}
