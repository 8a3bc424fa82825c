package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/homeinfo/his/docs"
	"github.com/homeinfo/his/internal/api/handler"
	"github.com/homeinfo/his/internal/api/middleware"
	"github.com/homeinfo/his/internal/core/ports"
	"github.com/homeinfo/his/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the public API needs.
type Deps struct {
	Sessions     ports.SessionService
	Entitlements ports.EntitlementService
	Resolver     middleware.ContextResolver
	Checks       []handlers.Check
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "api",
		Registerer: deps.Registerer,
	}))

	// --- Dependencies ---
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	entitlementHandler := handler.NewEntitlementHandler(deps.Entitlements)
	authenticated := middleware.Session(deps.Resolver)

	// --- Session routes ---
	e.POST("/session", sessionHandler.Login)
	e.GET("/session", sessionHandler.List, authenticated)
	e.GET("/session/:token", sessionHandler.Get, authenticated)
	e.PUT("/session/:token", sessionHandler.Renew, authenticated)
	e.DELETE("/session/:token", sessionHandler.Close, authenticated)

	// --- Entitlement routes ---
	e.GET("/service/:name", entitlementHandler.Service,
		authenticated, middleware.Authorized(deps.Entitlements, middleware.FromParam("name")))
	e.POST("/account-service", entitlementHandler.Grant, authenticated)
	e.DELETE("/account-service/:account/:service", entitlementHandler.Revoke, authenticated)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one structured line per request. The route pattern is
// logged instead of the path so session tokens stay out of the logs.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("route", c.Path()).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
