// Package apierror maps domain errors to HTTP statuses and stable error codes
// and back. Both HTTP surfaces and the session cache client share the table.
package apierror

import (
	"errors"
	"net/http"

	"github.com/homeinfo/his/internal/core/domain"
)

// Response is the canonical error envelope for all HTTP errors.
type Response struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type mapping struct {
	err    error
	status int
	code   string
}

// Order matters only for errors wrapping more than one sentinel.
var table = []mapping{
	{domain.ErrNoSuchSession, http.StatusNotFound, "no_such_session"},
	{domain.ErrSessionExpired, http.StatusUnauthorized, "session_expired"},
	{domain.ErrDurationOutOfBounds, http.StatusBadRequest, "duration_out_of_bounds"},
	{domain.ErrCacheUnavailable, http.StatusBadGateway, "cache_unavailable"},
	{domain.ErrNoSuchAccount, http.StatusNotFound, "no_such_account"},
	{domain.ErrNoSuchCustomer, http.StatusNotFound, "no_such_customer"},
	{domain.ErrAccountLocked, http.StatusLocked, "account_locked"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrMissingCredentials, http.StatusUnauthorized, "missing_credentials"},
	{domain.ErrNoSuchService, http.StatusNotFound, "no_such_service"},
	{domain.ErrServiceLocked, http.StatusServiceUnavailable, "service_locked"},
	{domain.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{domain.ErrInconsistency, http.StatusConflict, "inconsistency"},
}

// Resolve returns the status and code for a known domain error.
func Resolve(err error) (status int, resp Response, ok bool) {
	for _, m := range table {
		if errors.Is(err, m.err) {
			return m.status, Response{Error: m.err.Error(), Code: m.code}, true
		}
	}
	return 0, Response{}, false
}

// Sentinel returns the domain error registered under code, or nil.
func Sentinel(code string) error {
	for _, m := range table {
		if m.code == code {
			return m.err
		}
	}
	return nil
}
