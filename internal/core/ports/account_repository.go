package ports

import (
	"context"

	"github.com/homeinfo/his/internal/core/domain"
)

// AccountRepository defines persistence of accounts.
type AccountRepository interface {
	// FindByID returns domain.ErrNoSuchAccount when absent.
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// FindByName looks an account up by its unique login name.
	FindByName(ctx context.Context, name string) (*domain.Account, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error)
	// Update persists the login bookkeeping of an account: failed logins,
	// last login and credential hash.
	Update(ctx context.Context, account *domain.Account) error
}

// CustomerRepository defines read access to customers.
type CustomerRepository interface {
	// FindByID returns domain.ErrNoSuchCustomer when absent.
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
}
