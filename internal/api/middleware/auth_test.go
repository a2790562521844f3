package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clipstream/auth-service/internal/core/domain"
	"github.com/clipstream/auth-service/internal/core/ports"
)

type stubTokenService struct {
	claims *ports.TokenClaims
	err    error
}

func (s *stubTokenService) Issue(string, string, domain.Role, time.Duration) (string, error) {
	return "", nil
}

func (s *stubTokenService) Validate(string) (*ports.TokenClaims, error) {
	return s.claims, s.err
}

func invoke(t *testing.T, tokens ports.TokenService, authHeader string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/users/user-1", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	err := Auth(tokens)(next)(c)
	return rec, c, err
}

func TestAuth_MissingHeader(t *testing.T) {
	_, _, err := invoke(t, &stubTokenService{}, "")

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	_, _, err := invoke(t, &stubTokenService{}, "Token abc")

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	tokens := &stubTokenService{err: domain.NewUnauthorized("Invalid token")}
	_, _, err := invoke(t, tokens, "Bearer bad")

	de, ok := domain.AsDomainError(err)
	if !ok || de.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 domain error, got %v", err)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := &stubTokenService{claims: &ports.TokenClaims{
		UserID:   "user-1",
		Username: "alice",
		Role:     domain.RoleUser,
	}}

	rec, c, err := invoke(t, tokens, "Bearer good")
	if err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get("user_id") != "user-1" || c.Get("username") != "alice" || c.Get("role") != "USER" {
		t.Fatalf("claims not injected: %v %v %v", c.Get("user_id"), c.Get("username"), c.Get("role"))
	}
}
