package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/core/ports"
	"github.com/homeinfo/his/internal/pkg/metrics"
)

// EntitlementStore reads and writes the customer and account grant relations
// and expands them through the service dependency graph.
type EntitlementStore struct {
	grants   ports.GrantRepository
	services ports.ServiceRepository
	now      func() time.Time
	log      zerolog.Logger
}

// NewEntitlementStore returns an EntitlementStore.
func NewEntitlementStore(grants ports.GrantRepository, services ports.ServiceRepository, log zerolog.Logger) *EntitlementStore {
	return &EntitlementStore{
		grants:   grants,
		services: services,
		now:      time.Now,
		log:      log,
	}
}

// Graph loads the current dependency graph.
func (s *EntitlementStore) Graph(ctx context.Context) (*ServiceGraph, error) {
	edges, err := s.services.Dependencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load service dependencies: %w", err)
	}
	return NewServiceGraph(edges), nil
}

// CheckIntegrity logs dependency cycles and returns them. Cycles never fail
// an authorization; they only stop expansion.
func (s *EntitlementStore) CheckIntegrity(ctx context.Context) ([][]string, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	cycles := g.Cycles()
	metrics.DependencyCyclesDetected.Set(float64(len(cycles)))
	for _, c := range cycles {
		s.log.Warn().Strs("services", c).Msg("service dependency cycle")
	}
	return cycles, nil
}

// CustomerGrants returns every service directly or transitively granted to the
// customer through currently active grants.
func (s *EntitlementStore) CustomerGrants(ctx context.Context, customerID string) (domain.ServiceSet, error) {
	rows, err := s.grants.CustomerServices(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer grants: %w", err)
	}

	now := s.now()
	direct := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Active(now) {
			direct = append(direct, row.ServiceID)
		}
	}
	return s.expand(ctx, direct)
}

// AccountGrants returns every service directly or transitively granted to the
// account. Account grants carry no window.
func (s *EntitlementStore) AccountGrants(ctx context.Context, accountID string) (domain.ServiceSet, error) {
	rows, err := s.grants.AccountServices(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account grants: %w", err)
	}

	direct := make([]string, 0, len(rows))
	for _, row := range rows {
		direct = append(direct, row.ServiceID)
	}
	return s.expand(ctx, direct)
}

func (s *EntitlementStore) expand(ctx context.Context, direct []string) (domain.ServiceSet, error) {
	if len(direct) == 0 {
		return make(domain.ServiceSet), nil
	}
	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return g.Expand(direct...), nil
}

// Grant lets the account use the service. The account's customer must hold
// an active grant covering the service, otherwise domain.ErrInconsistency.
func (s *EntitlementStore) Grant(ctx context.Context, account *domain.Account, serviceID string) error {
	if _, err := s.services.FindByID(ctx, serviceID); err != nil {
		return fmt.Errorf("grant: %w", err)
	}

	held, err := s.CustomerGrants(ctx, account.CustomerID)
	if err != nil {
		return fmt.Errorf("grant: %w", err)
	}
	if !held.Has(serviceID) {
		return fmt.Errorf("grant %s to %s: %w", serviceID, account.ID, domain.ErrInconsistency)
	}

	if err := s.grants.AddAccountService(ctx, domain.AccountService{AccountID: account.ID, ServiceID: serviceID}); err != nil {
		return fmt.Errorf("grant: %w", err)
	}

	s.log.Info().Str("account_id", account.ID).Str("service_id", serviceID).Msg("account service granted")
	return nil
}

// Revoke removes an account grant. Revoking an absent grant is not an error.
func (s *EntitlementStore) Revoke(ctx context.Context, accountID, serviceID string) error {
	if err := s.grants.RemoveAccountService(ctx, accountID, serviceID); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	s.log.Info().Str("account_id", accountID).Str("service_id", serviceID).Msg("account service revoked")
	return nil
}

// GrantCustomer inserts a customer grant or replaces its window.
func (s *EntitlementStore) GrantCustomer(ctx context.Context, customerID, serviceID string, begin, end *time.Time) error {
	if _, err := s.services.FindByID(ctx, serviceID); err != nil {
		return fmt.Errorf("grant customer: %w", err)
	}
	grant := domain.CustomerService{CustomerID: customerID, ServiceID: serviceID, Begin: begin, End: end}
	if err := s.grants.AddCustomerService(ctx, grant); err != nil {
		return fmt.Errorf("grant customer: %w", err)
	}
	return nil
}
