package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homeinfo/his/internal/core/domain"
)

// ServiceKey is the echo.Context key the authorized *domain.Service is stored under.
const ServiceKey = "service"

// EntitlementChecker authorizes a caller for a named service.
type EntitlementChecker interface {
	Check(ctx context.Context, rc domain.RequestContext, serviceName string) (*domain.Service, error)
}

// ServiceName picks the service a request wants to use.
type ServiceName func(c echo.Context) string

// Named always returns name.
func Named(name string) ServiceName {
	return func(echo.Context) string { return name }
}

// FromParam reads the service name from a path parameter.
func FromParam(param string) ServiceName {
	return func(c echo.Context) string { return c.Param(param) }
}

// Authorized lets the request through only if the caller may use the service.
// It must run after Session.
func Authorized(checker EntitlementChecker, service ServiceName) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc, ok := RequestContextFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session context")
			}

			svc, err := checker.Check(c.Request().Context(), rc, service(c))
			if err != nil {
				return err
			}

			c.Set(ServiceKey, svc)
			return next(c)
		}
	}
}
