package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/api"
	"github.com/homeinfo/his/internal/api/handler"
	hismiddleware "github.com/homeinfo/his/internal/api/middleware"
	"github.com/homeinfo/his/internal/core/ports"
	"github.com/homeinfo/his/internal/infrastructure/http/handlers"
)

// CacheRouterConfig wires the session cache authority.
type CacheRouterConfig struct {
	Cache ports.SessionCache
	// Secret enables the HS256 bearer check on token routes when set.
	Secret string
	Checks []handlers.Check
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewCacheRouter builds the Echo instance of the session cache authority.
func NewCacheRouter(cfg CacheRouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "session_cache",
		Registerer: cfg.Registerer,
	}))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(cfg.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Session cache ---
	cacheHandler := handlers.NewSessionCacheHandler(cfg.Cache)
	serviceAuth := hismiddleware.ServiceToken(cfg.Secret)
	e.GET("/:token", cacheHandler.Get, serviceAuth)
	e.PATCH("/:token", cacheHandler.Refresh, serviceAuth)
	e.DELETE("/:token", cacheHandler.Close, serviceAuth)

	return e
}
