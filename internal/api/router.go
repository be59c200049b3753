package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/stockroom/inventory-api/internal/api/handler"
	"github.com/stockroom/inventory-api/internal/api/middleware"
	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

// Dependencies groups everything the HTTP layer needs.
type Dependencies struct {
	AuthService ports.AuthService
	ItemService ports.ItemService
	Logger      zerolog.Logger

	SecureCookies   bool
	ItemsPublicRead bool

	// TrustProxyHeaders takes the client IP from X-Forwarded-For when the
	// request arrives from a private or loopback address.
	TrustProxyHeaders bool

	// MetricsRegisterer enables HTTP request metrics and GET /metrics.
	// Nil leaves both off.
	MetricsRegisterer prometheus.Registerer
	ReadinessChecks   map[string]handler.HealthCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.IPExtractor = echo.ExtractIPDirect()
	if deps.TrustProxyHeaders {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))

	if deps.MetricsRegisterer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "inventory_http",
			Registerer: deps.MetricsRegisterer,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
			},
		}))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Health checks and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.ReadinessChecks, deps.Logger)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	requireAuth := middleware.Auth(deps.AuthService)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService, handler.SessionCookies{Secure: deps.SecureCookies})
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register, middleware.OptionalAuth(deps.AuthService))
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Item routes ---
	itemHandler := handler.NewItemHandler(deps.ItemService)
	readItems := requireAuth
	if deps.ItemsPublicRead {
		readItems = middleware.OptionalAuth(deps.AuthService)
	}
	e.GET("/items", itemHandler.List, readItems)
	e.GET("/items/:id", itemHandler.Get, requireAuth)
	e.POST("/items", itemHandler.Create, requireAuth, adminOnly)
	e.PUT("/items", itemHandler.Update, requireAuth, adminOnly)
	e.DELETE("/items", itemHandler.Delete, requireAuth, adminOnly)

	return e
}
