package handler

import "github.com/homeinfo/his/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Request / Response types ---

// loginRequest carries credentials. Missing fields are reported by the
// session service, not by validation.
type loginRequest struct {
	Account string `json:"account"`
	Passwd  string `json:"passwd"`
}

type closedResponse struct {
	Closed string `json:"closed"`
}

type serviceResponse struct {
	Service    *domain.Service `json:"service"`
	Authorized bool            `json:"authorized"`
}

type grantRequest struct {
	Account string `json:"account" validate:"required"`
	Service string `json:"service" validate:"required"`
}

type grantResponse struct {
	Account string `json:"account"`
	Service string `json:"service"`
	Granted bool   `json:"granted"`
}
