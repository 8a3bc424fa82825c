package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homeinfo/his/internal/core/ports"
)

// SessionHandler handles the session endpoints of the public API.
type SessionHandler struct {
	service ports.SessionService
}

func NewSessionHandler(service ports.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Login opens a session with account credentials.
//
// @Summary      Log in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        duration  query     int           false  "Session duration in minutes"
// @Param        body      body      loginRequest  true   "Credentials"
// @Success      200       {object}  domain.Session
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      423       {object}  errorResponse
// @Router       /session [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	duration, err := durationParam(c)
	if err != nil {
		return err
	}

	session, err := h.service.Login(c.Request().Context(), req.Account, req.Passwd, duration)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// List returns the sessions visible to the caller.
//
// @Summary      List sessions
// @Tags         session
// @Produce      json
// @Security     SessionToken
// @Success      200  {array}   domain.Session
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /session [get]
func (h *SessionHandler) List(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}

	sessions, err := h.service.List(c.Request().Context(), rc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

// Get returns a session. The token "!" is the caller's own session.
//
// @Summary      Get session
// @Tags         session
// @Produce      json
// @Security     SessionToken
// @Param        token  path      string  true  "Session token or !"
// @Success      200    {object}  domain.SessionSnapshot
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /session/{token} [get]
func (h *SessionHandler) Get(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}

	session, err := h.service.Get(c.Request().Context(), rc, c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// Renew extends a session.
//
// @Summary      Renew session
// @Tags         session
// @Produce      json
// @Security     SessionToken
// @Param        token     path      string  true   "Session token or !"
// @Param        duration  query     int     false  "Session duration in minutes"
// @Success      200       {object}  domain.SessionSnapshot
// @Failure      400       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      423       {object}  errorResponse
// @Router       /session/{token} [put]
func (h *SessionHandler) Renew(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	duration, err := durationParam(c)
	if err != nil {
		return err
	}

	session, err := h.service.Renew(c.Request().Context(), rc, c.Param("token"), duration)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// Close terminates a session.
//
// @Summary      Close session
// @Tags         session
// @Produce      json
// @Security     SessionToken
// @Param        token  path      string  true  "Session token or !"
// @Success      200    {object}  closedResponse
// @Failure      404    {object}  errorResponse
// @Router       /session/{token} [delete]
func (h *SessionHandler) Close(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}

	closed, err := h.service.Close(c.Request().Context(), rc, c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, closedResponse{Closed: closed})
}
