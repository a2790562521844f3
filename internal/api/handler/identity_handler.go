package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipstream/auth-service/internal/api/metrics"
	"github.com/clipstream/auth-service/internal/core/domain"
	"github.com/clipstream/auth-service/internal/core/ports"
)

// IdentityHandler exposes the identity core over HTTP. Tokens and the
// session id travel back as HttpOnly cookies; the body carries the public
// view only.
type IdentityHandler struct {
	identity ports.IdentityService
}

func NewIdentityHandler(identity ports.IdentityService) *IdentityHandler {
	return &IdentityHandler{identity: identity}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Email    string `json:"email"    validate:"required,email,max=60"`
	Password string `json:"password" validate:"required,min=3,max=30"`
}

type authRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=20"`
	Email    string `json:"email,omitempty"    validate:"omitempty,email,max=60"`
	Password string `json:"password"           validate:"required,min=3,max=30"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type updateRequest struct {
	Username    string `json:"username,omitempty"     validate:"omitempty,min=3,max=20"`
	Email       string `json:"email,omitempty"        validate:"omitempty,email,max=60"`
	NewPassword string `json:"new_password,omitempty" validate:"omitempty,min=3,max=30"`
	OldPassword string `json:"old_password,omitempty" validate:"omitempty,min=3,max=30"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Register creates a new credential and opens a session for it.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      200   {object}  domain.PublicView
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /register [post]
func (h *IdentityHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewBadRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.identity.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registerResult(err)).Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	setSessionCookie(c, result.SessionID)
	setTokenCookies(c, result.AccessToken, result.RefreshToken)
	return c.JSON(http.StatusOK, result.User)
}

// Authenticate verifies a password and opens a session.
//
// @Summary      Authenticate with username or email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authRequest  true  "Login credentials"
// @Success      200   {object}  domain.PublicView
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth [post]
func (h *IdentityHandler) Authenticate(c echo.Context) error {
	var req authRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewBadRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.identity.Authenticate(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		metrics.AuthenticationsTotal.WithLabelValues("password", "failure").Inc()
		return err
	}
	metrics.AuthenticationsTotal.WithLabelValues("password", "success").Inc()

	setSessionCookie(c, result.SessionID)
	setTokenCookies(c, result.AccessToken, result.RefreshToken)
	return c.JSON(http.StatusOK, result.User)
}

// AuthenticateByToken exchanges a still-valid token for a fresh session.
//
// @Summary      Authenticate with a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenRequest  true  "Token"
// @Success      200   {object}  domain.PublicView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth_with_token [post]
func (h *IdentityHandler) AuthenticateByToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewBadRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.identity.AuthenticateByToken(c.Request().Context(), req.Token)
	if err != nil {
		metrics.AuthenticationsTotal.WithLabelValues("token", "failure").Inc()
		return err
	}
	metrics.AuthenticationsTotal.WithLabelValues("token", "success").Inc()

	setSessionCookie(c, result.SessionID)
	return c.JSON(http.StatusOK, result.User)
}

// Refresh exchanges a refresh token for a new access token and session.
//
// @Summary      Refresh the access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenRequest  true  "Refresh token"
// @Success      200   {object}  statusResponse
// @Failure      401   {object}  map[string]string
// @Router       /refresh [post]
func (h *IdentityHandler) Refresh(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewBadRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.identity.AuthenticateByToken(c.Request().Context(), req.Token)
	if err != nil {
		metrics.AuthenticationsTotal.WithLabelValues("token", "failure").Inc()
		return err
	}
	metrics.AuthenticationsTotal.WithLabelValues("token", "success").Inc()

	setSessionCookie(c, result.SessionID)
	setCookie(c, "access_token", result.AccessToken)
	return c.JSON(http.StatusOK, statusResponse{Status: "OK"})
}

// Update patches the credential's username, email, or password.
//
// @Summary      Update user credentials
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user_id  path      string         true  "User id"
// @Param        body     body      updateRequest  true  "Fields to change"
// @Success      200      {object}  statusResponse
// @Failure      204      "nothing to update"
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /users/{user_id} [put]
func (h *IdentityHandler) Update(c echo.Context) error {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewBadRequest("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	patch := ports.CredentialPatch{
		Username:    req.Username,
		Email:       req.Email,
		NewPassword: req.NewPassword,
		OldPassword: req.OldPassword,
	}

	if _, err := h.identity.Update(c.Request().Context(), c.Param("user_id"), patch); err != nil {
		metrics.CredentialMutationsTotal.WithLabelValues("update", "failure").Inc()
		return err
	}
	metrics.CredentialMutationsTotal.WithLabelValues("update", "success").Inc()

	return c.JSON(http.StatusOK, statusResponse{Status: "OK", Message: "User updated successfully"})
}

// Delete removes the credential.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        user_id  path      string  true  "User id"
// @Success      200      {object}  statusResponse
// @Failure      404      {object}  map[string]string
// @Router       /users/{user_id} [delete]
func (h *IdentityHandler) Delete(c echo.Context) error {
	if err := h.identity.Delete(c.Request().Context(), c.Param("user_id")); err != nil {
		metrics.CredentialMutationsTotal.WithLabelValues("delete", "failure").Inc()
		return err
	}
	metrics.CredentialMutationsTotal.WithLabelValues("delete", "success").Inc()

	return c.JSON(http.StatusOK, statusResponse{Status: "OK", Message: "User deleted successfully"})
}

func registerResult(err error) string {
	if de, ok := domain.AsDomainError(err); ok && de.Status == http.StatusConflict {
		return "conflict"
	}
	return "error"
}

func setSessionCookie(c echo.Context, sessionID string) {
	setCookie(c, "session_id", sessionID)
}

func setTokenCookies(c echo.Context, access, refresh string) {
	setCookie(c, "access_token", access)
	setCookie(c, "refresh_token", refresh)
}

func setCookie(c echo.Context, name, value string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}
