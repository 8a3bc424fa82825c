package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homeinfo/his/internal/api/middleware"
	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/core/ports"
)

// EntitlementHandler handles service checks and account grants.
type EntitlementHandler struct {
	service ports.EntitlementService
}

func NewEntitlementHandler(service ports.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{service: service}
}

// Service reports the service the Authorized middleware let the caller use.
//
// @Summary      Check service authorization
// @Tags         service
// @Produce      json
// @Security     SessionToken
// @Param        name  path      string  true  "Service name"
// @Success      200   {object}  serviceResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /service/{name} [get]
func (h *EntitlementHandler) Service(c echo.Context) error {
	svc, ok := c.Get(middleware.ServiceKey).(*domain.Service)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "service not authorized")
	}
	return c.JSON(http.StatusOK, serviceResponse{Service: svc, Authorized: true})
}

// Grant lets an account use a service its customer holds.
//
// @Summary      Grant service to account
// @Tags         service
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        body  body      grantRequest  true  "Account and service"
// @Success      201   {object}  grantResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /account-service [post]
func (h *EntitlementHandler) Grant(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	var req grantRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Grant(c.Request().Context(), rc, req.Account, req.Service); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, grantResponse{Account: req.Account, Service: req.Service, Granted: true})
}

// Revoke withdraws an account grant.
//
// @Summary      Revoke service from account
// @Tags         service
// @Produce      json
// @Security     SessionToken
// @Param        account  path      string  true  "Account id"
// @Param        service  path      string  true  "Service name"
// @Success      200      {object}  grantResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /account-service/{account}/{service} [delete]
func (h *EntitlementHandler) Revoke(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}

	account, service := c.Param("account"), c.Param("service")
	if err := h.service.Revoke(c.Request().Context(), rc, account, service); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, grantResponse{Account: account, Service: service, Granted: false})
}
