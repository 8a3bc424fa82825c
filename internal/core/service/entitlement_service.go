package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/core/ports"
)

type entitlementService struct {
	resolver *EntitlementResolver
	store    *EntitlementStore
	services ports.ServiceRepository
	accounts ports.AccountRepository
	log      zerolog.Logger
}

// NewEntitlementService returns a ports.EntitlementService.
func NewEntitlementService(
	resolver *EntitlementResolver,
	store *EntitlementStore,
	services ports.ServiceRepository,
	accounts ports.AccountRepository,
	log zerolog.Logger,
) ports.EntitlementService {
	return &entitlementService{
		resolver: resolver,
		store:    store,
		services: services,
		accounts: accounts,
		log:      log,
	}
}

// Check resolves the service by name and authorizes the caller's account.
func (s *entitlementService) Check(ctx context.Context, rc domain.RequestContext, serviceName string) (*domain.Service, error) {
	svc, err := s.services.FindByName(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", serviceName, err)
	}

	ok, err := s.resolver.Authorized(ctx, rc.Account, svc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("check %s: %w", serviceName, domain.ErrNotAuthorized)
	}
	return svc, nil
}

// Grant lets accountID use the named service. Only root and admins of the
// account's customer may grant.
func (s *entitlementService) Grant(ctx context.Context, rc domain.RequestContext, accountID, serviceName string) error {
	target, svc, err := s.resolveTarget(ctx, rc, accountID, serviceName)
	if err != nil {
		return err
	}
	return s.store.Grant(ctx, target, svc.ID)
}

// Revoke withdraws an account grant. Same permissions as Grant.
func (s *entitlementService) Revoke(ctx context.Context, rc domain.RequestContext, accountID, serviceName string) error {
	target, svc, err := s.resolveTarget(ctx, rc, accountID, serviceName)
	if err != nil {
		return err
	}
	return s.store.Revoke(ctx, target.ID, svc.ID)
}

func (s *entitlementService) resolveTarget(ctx context.Context, rc domain.RequestContext, accountID, serviceName string) (*domain.Account, *domain.Service, error) {
	if !rc.Account.Root && !rc.Account.Admin {
		return nil, nil, domain.ErrNotAuthorized
	}

	target, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if !rc.Account.Manages(target) {
		return nil, nil, domain.ErrNotAuthorized
	}

	svc, err := s.services.FindByName(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}
	return target, svc, nil
}
