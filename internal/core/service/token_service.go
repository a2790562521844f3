package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clipstream/auth-service/internal/core/domain"
	"github.com/clipstream/auth-service/internal/core/ports"
)

// tokenClaims is the wire shape of a signed token: the user id under "id",
// the username as the registered subject, the role, and the expiry.
type tokenClaims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens with a process-wide secret.
// Access and refresh tokens differ only in the TTL the caller passes in.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue builds and signs a token for the given identity, valid for ttl.
func (s *TokenService) Issue(userID, username string, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate verifies signature and expiry and returns the embedded claims.
// Expired tokens fail with "Token expired"; everything else that fails
// verification is reported as "Invalid token".
func (s *TokenService) Validate(token string) (*ports.TokenClaims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.NewUnauthorized("Token expired")
		}
		return nil, domain.NewUnauthorized("Invalid token")
	}
	if !parsed.Valid {
		return nil, domain.NewUnauthorized("Invalid token")
	}

	out := &ports.TokenClaims{
		UserID:   claims.UserID,
		Username: claims.Subject,
		Role:     domain.Role(claims.Role),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
