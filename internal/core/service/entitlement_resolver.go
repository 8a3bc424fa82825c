package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/pkg/metrics"
)

// GrantSource provides the expanded grant sets the resolver decides on.
type GrantSource interface {
	CustomerGrants(ctx context.Context, customerID string) (domain.ServiceSet, error)
	AccountGrants(ctx context.Context, accountID string) (domain.ServiceSet, error)
}

// EntitlementResolver decides whether an account may use a service.
// It has no side effects besides metrics.
type EntitlementResolver struct {
	grants GrantSource
	log    zerolog.Logger
}

// NewEntitlementResolver returns an EntitlementResolver.
func NewEntitlementResolver(grants GrantSource, log zerolog.Logger) *EntitlementResolver {
	return &EntitlementResolver{grants: grants, log: log}
}

// Authorized evaluates, in order:
//
//  1. root accounts are always authorized
//  2. locked services fail with domain.ErrServiceLocked
//  3. services the customer does not hold are denied
//  4. admins are authorized for everything their customer holds
//  5. everyone else needs an account grant
//
// Grant sets are only loaded when a step needs them.
func (r *EntitlementResolver) Authorized(ctx context.Context, account *domain.Account, service *domain.Service) (bool, error) {
	if account.Root {
		decided("granted", "root")
		return true, nil
	}

	if service.Locked {
		decided("locked", "maintenance")
		return false, fmt.Errorf("service %s: %w", service.Name, domain.ErrServiceLocked)
	}

	customer, err := r.grants.CustomerGrants(ctx, account.CustomerID)
	if err != nil {
		return false, err
	}
	if !customer.Has(service.ID) {
		decided("denied", "customer")
		return false, nil
	}

	if account.Admin {
		decided("granted", "admin")
		return true, nil
	}

	own, err := r.grants.AccountGrants(ctx, account.ID)
	if err != nil {
		return false, err
	}
	if own.Has(service.ID) {
		decided("granted", "account")
		return true, nil
	}

	decided("denied", "account")
	r.log.Debug().Str("account_id", account.ID).Str("service", service.Name).Msg("service not granted to account")
	return false, nil
}

func decided(result, reason string) {
	metrics.AuthorizationDecisionsTotal.WithLabelValues(result, reason).Inc()
}
