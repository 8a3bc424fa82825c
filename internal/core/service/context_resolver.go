package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/core/ports"
)

// ContextResolver turns a session token into the RequestContext of the
// caller.
type ContextResolver struct {
	cache     ports.SessionCache
	accounts  ports.AccountRepository
	customers ports.CustomerRepository
	now       func() time.Time
}

func NewContextResolver(cache ports.SessionCache, accounts ports.AccountRepository, customers ports.CustomerRepository) *ContextResolver {
	return &ContextResolver{cache: cache, accounts: accounts, customers: customers, now: time.Now}
}

// Resolve fails with the cache error for unknown or expired tokens and with
// domain.ErrAccountLocked when the owning account can no longer be used.
func (r *ContextResolver) Resolve(ctx context.Context, token string) (domain.RequestContext, error) {
	if token == "" {
		return domain.RequestContext{}, domain.ErrMissingCredentials
	}

	snapshot, err := r.cache.Get(ctx, token)
	if err != nil {
		return domain.RequestContext{}, err
	}

	account, err := r.accounts.FindByID(ctx, snapshot.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNoSuchAccount) {
			return domain.RequestContext{}, domain.ErrAccountLocked
		}
		return domain.RequestContext{}, fmt.Errorf("resolve account: %w", err)
	}
	if !account.Usable(r.now()) {
		return domain.RequestContext{}, domain.ErrAccountLocked
	}

	customer, err := r.customers.FindByID(ctx, account.CustomerID)
	if err != nil {
		return domain.RequestContext{}, fmt.Errorf("resolve customer: %w", err)
	}

	return domain.RequestContext{Session: *snapshot, Account: account, Customer: customer}, nil
}
