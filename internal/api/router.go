package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clipstream/auth-service/internal/api/handler"
	"github.com/clipstream/auth-service/internal/api/middleware"
	"github.com/clipstream/auth-service/internal/core/ports"
	"github.com/clipstream/auth-service/internal/infrastructure/db/sqlite"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	identity ports.IdentityService,
	tokens ports.TokenService,
	store *sqlite.Store,
	rdb *redis.Client,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Dependencies ---
	identityHandler := handler.NewIdentityHandler(identity)
	authMiddleware := middleware.Auth(tokens)

	// --- Identity routes ---
	e.POST("/register", identityHandler.Register)
	e.POST("/auth", identityHandler.Authenticate)
	e.POST("/auth_with_token", identityHandler.AuthenticateByToken)
	e.POST("/refresh", identityHandler.Refresh)
	e.PUT("/users/:user_id", identityHandler.Update, authMiddleware)
	e.DELETE("/users/:user_id", identityHandler.Delete, authMiddleware)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(store, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
