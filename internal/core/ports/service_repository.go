package ports

import (
	"context"

	"github.com/homeinfo/his/internal/core/domain"
)

// ServiceRepository defines persistence of services and their dependency edges.
type ServiceRepository interface {
	// FindByID and FindByName return domain.ErrNoSuchService when absent.
	FindByID(ctx context.Context, id string) (*domain.Service, error)
	FindByName(ctx context.Context, name string) (*domain.Service, error)
	// Dependencies returns every dependency edge.
	Dependencies(ctx context.Context) ([]domain.ServiceDependency, error)
}

// GrantRepository defines persistence of the customer and account grant relations.
type GrantRepository interface {
	CustomerServices(ctx context.Context, customerID string) ([]domain.CustomerService, error)
	AccountServices(ctx context.Context, accountID string) ([]domain.AccountService, error)
	// AddCustomerService inserts the grant or replaces its window.
	AddCustomerService(ctx context.Context, grant domain.CustomerService) error
	// AddAccountService is idempotent.
	AddAccountService(ctx context.Context, grant domain.AccountService) error
	// RemoveAccountService is idempotent.
	RemoveAccountService(ctx context.Context, accountID, serviceID string) error
}
