package domain

import "errors"

// Session errors.
var (
	ErrNoSuchSession       = errors.New("no such session")
	ErrSessionExpired      = errors.New("session expired")
	ErrDurationOutOfBounds = errors.New("session duration is out of bounds")
	ErrCacheUnavailable    = errors.New("session cache unavailable")
)

// Account errors.
var (
	ErrNoSuchAccount      = errors.New("no such account")
	ErrNoSuchCustomer     = errors.New("no such customer")
	ErrAccountLocked      = errors.New("account is locked")
	ErrInvalidCredentials = errors.New("invalid user name and / or password")
	ErrMissingCredentials = errors.New("no user name and / or password specified")
)

// Service and entitlement errors.
var (
	ErrNoSuchService = errors.New("no such service")
	ErrServiceLocked = errors.New("service is locked for maintenance")
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInconsistency is returned when an account grant would exceed what the
	// owning customer currently holds.
	ErrInconsistency = errors.New("account service without matching active customer service")
)
