package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/homeinfo/his/internal/core/domain"
)

const (
	// ContextKey is the echo.Context key the caller's RequestContext is stored under.
	ContextKey = "request_context"

	sessionScheme = "session"
	sessionParam  = "session"
)

// ContextResolver builds the RequestContext of a session token.
type ContextResolver interface {
	Resolve(ctx context.Context, token string) (domain.RequestContext, error)
}

// Session authenticates the request by its session token, taken from the
// "Authorization: Session <token>" header or the "session" query parameter,
// and stores the resolved RequestContext on the echo.Context.
func Session(resolver ContextResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionToken(c)
			if token == "" {
				return domain.ErrMissingCredentials
			}

			rc, err := resolver.Resolve(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(ContextKey, rc)
			return next(c)
		}
	}
}

// RequestContextFrom returns the RequestContext stored by Session.
func RequestContextFrom(c echo.Context) (domain.RequestContext, bool) {
	rc, ok := c.Get(ContextKey).(domain.RequestContext)
	if !ok || rc.Account == nil {
		return domain.RequestContext{}, false
	}
	return rc, true
}

func sessionToken(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, sessionScheme) {
			return strings.TrimSpace(token)
		}
	}
	return c.QueryParam(sessionParam)
}
