package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homeinfo/his/internal/api/middleware"
	"github.com/homeinfo/his/internal/core/domain"
)

// requestContext returns the caller injected by the Session middleware.
// Its absence means the route was mounted without the middleware.
func requestContext(c echo.Context) (domain.RequestContext, error) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		return domain.RequestContext{}, echo.NewHTTPError(http.StatusUnauthorized, "missing session context")
	}
	return rc, nil
}

// maxDurationMinutes is the largest minute count a time.Duration can hold.
const maxDurationMinutes = math.MaxInt64 / int64(time.Minute)

// durationParam reads the optional "duration" query parameter in minutes.
// Zero means the default duration.
func durationParam(c echo.Context) (time.Duration, error) {
	raw := c.QueryParam("duration")
	if raw == "" {
		return 0, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "duration must be a whole number of minutes")
	}
	if minutes <= 0 || int64(minutes) > maxDurationMinutes {
		return 0, domain.ErrDurationOutOfBounds
	}
	return time.Duration(minutes) * time.Minute, nil
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
