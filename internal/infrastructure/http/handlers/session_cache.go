package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homeinfo/his/internal/core/ports"
)

// SessionCacheHandler exposes the authoritative session cache to other
// processes.
type SessionCacheHandler struct {
	cache ports.SessionCache
}

func NewSessionCacheHandler(cache ports.SessionCache) *SessionCacheHandler {
	return &SessionCacheHandler{cache: cache}
}

// RefreshRequest is the body of PATCH /:token.
type RefreshRequest struct {
	End   time.Time `json:"end" validate:"required"`
	Login bool      `json:"login"`
}

// ClosedResponse is the body returned by DELETE /:token.
type ClosedResponse struct {
	Closed string `json:"closed"`
}

// Get returns the cached snapshot of a session.
func (h *SessionCacheHandler) Get(c echo.Context) error {
	snapshot, err := h.cache.Get(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// Refresh writes end and login through to the store and returns the new snapshot.
func (h *SessionCacheHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	snapshot, err := h.cache.Refresh(c.Request().Context(), c.Param("token"), req.End, req.Login)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// Close deletes a session. Closing an unknown token succeeds.
func (h *SessionCacheHandler) Close(c echo.Context) error {
	token := c.Param("token")
	if err := h.cache.Close(c.Request().Context(), token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ClosedResponse{Closed: token})
}
