package domain

import "time"

// MaxFailedLogins is the number of failed logins an account tolerates before
// further logins are refused.
const MaxFailedLogins = 5

// Customer is the tenant that owns accounts and buys services.
type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Account is a login identity owned by a customer.
type Account struct {
	ID           string     `json:"id"`
	CustomerID   string     `json:"customer"`
	Name         string     `json:"name"`
	FullName     string     `json:"fullName,omitempty"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Admin        bool       `json:"admin"`
	Root         bool       `json:"root"`
	Disabled     bool       `json:"disabled"`
	Deleted      *time.Time `json:"deleted,omitempty"`
	LockedUntil  *time.Time `json:"lockedUntil,omitempty"`
	FailedLogins int        `json:"failedLogins"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"created"`
}

// Locked reports whether the account is locked at now.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// Usable reports whether the account is neither deleted, disabled nor locked.
func (a *Account) Usable(now time.Time) bool {
	return a.Deleted == nil && !a.Disabled && !a.Locked(now)
}

// CanLogin reports whether a credential login may be attempted.
func (a *Account) CanLogin(now time.Time) bool {
	return a.Usable(now) && a.FailedLogins <= MaxFailedLogins
}

// Manages reports whether a may act on resources owned by other.
func (a *Account) Manages(other *Account) bool {
	switch {
	case a.Root:
		return true
	case a.ID == other.ID:
		return true
	case a.Admin:
		return a.CustomerID == other.CustomerID
	default:
		return false
	}
}
