package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/core/domain"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var nopLog = zerolog.Nop()

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock { return &fakeClock{now: at} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ── sessions ─────────────────────────────────────────────────────────────────

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	finds    int
	findErr  error
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]domain.Session)}
}

func (r *stubSessionRepo) put(s domain.Session) {
	r.mu.Lock()
	r.sessions[s.Token] = s
	r.mu.Unlock()
}

func (r *stubSessionRepo) has(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[token]
	return ok
}

func (r *stubSessionRepo) findCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finds
}

func (r *stubSessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.put(*s)
	return nil
}

func (r *stubSessionRepo) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if r.findErr != nil {
		return nil, r.findErr
	}
	s, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrNoSuchSession
	}
	return &s, nil
}

func (r *stubSessionRepo) Update(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.Token]; !ok {
		return domain.ErrNoSuchSession
	}
	r.sessions[s.Token] = *s
	return nil
}

func (r *stubSessionRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
	return nil
}

func (r *stubSessionRepo) DeleteExpired(_ context.Context, before time.Time) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept []domain.Session
	for token, s := range r.sessions {
		if s.End.Before(before) {
			swept = append(swept, s)
			delete(r.sessions, token)
		}
	}
	return swept, nil
}

func (r *stubSessionRepo) List(_ context.Context, accountIDs []string) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}
	var out []domain.Session
	for _, s := range r.sessions {
		if accountIDs == nil || wanted[s.AccountID] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

// ── accounts and customers ───────────────────────────────────────────────────

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
}

func newStubAccountRepo(accounts ...domain.Account) *stubAccountRepo {
	r := &stubAccountRepo{accounts: make(map[string]domain.Account)}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *stubAccountRepo) get(id string) domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id]
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNoSuchAccount
	}
	return &a, nil
}

func (r *stubAccountRepo) FindByName(_ context.Context, name string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Name == name {
			return &a, nil
		}
	}
	return nil, domain.ErrNoSuchAccount
}

func (r *stubAccountRepo) ListByCustomer(_ context.Context, customerID string) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Account
	for _, a := range r.accounts {
		if a.CustomerID == customerID {
			a := a
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *stubAccountRepo) Update(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; !ok {
		return domain.ErrNoSuchAccount
	}
	r.accounts[a.ID] = *a
	return nil
}

type stubCustomerRepo map[string]domain.Customer

func (r stubCustomerRepo) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := r[id]
	if !ok {
		return nil, domain.ErrNoSuchCustomer
	}
	return &c, nil
}

// ── services and grants ──────────────────────────────────────────────────────

type stubServiceRepo struct {
	services map[string]domain.Service
	edges    []domain.ServiceDependency
}

func newStubServiceRepo(services ...domain.Service) *stubServiceRepo {
	r := &stubServiceRepo{services: make(map[string]domain.Service)}
	for _, s := range services {
		r.services[s.ID] = s
	}
	return r
}

func (r *stubServiceRepo) FindByID(_ context.Context, id string) (*domain.Service, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, domain.ErrNoSuchService
	}
	return &s, nil
}

func (r *stubServiceRepo) FindByName(_ context.Context, name string) (*domain.Service, error) {
	for _, s := range r.services {
		if s.Name == name {
			return &s, nil
		}
	}
	return nil, domain.ErrNoSuchService
}

func (r *stubServiceRepo) Dependencies(context.Context) ([]domain.ServiceDependency, error) {
	return r.edges, nil
}

type stubGrantRepo struct {
	customer []domain.CustomerService
	account  []domain.AccountService
}

func (r *stubGrantRepo) CustomerServices(_ context.Context, customerID string) ([]domain.CustomerService, error) {
	var out []domain.CustomerService
	for _, g := range r.customer {
		if g.CustomerID == customerID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubGrantRepo) AccountServices(_ context.Context, accountID string) ([]domain.AccountService, error) {
	var out []domain.AccountService
	for _, g := range r.account {
		if g.AccountID == accountID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubGrantRepo) AddCustomerService(_ context.Context, grant domain.CustomerService) error {
	for i, g := range r.customer {
		if g.CustomerID == grant.CustomerID && g.ServiceID == grant.ServiceID {
			r.customer[i] = grant
			return nil
		}
	}
	r.customer = append(r.customer, grant)
	return nil
}

func (r *stubGrantRepo) AddAccountService(_ context.Context, grant domain.AccountService) error {
	for _, g := range r.account {
		if g == grant {
			return nil
		}
	}
	r.account = append(r.account, grant)
	return nil
}

func (r *stubGrantRepo) RemoveAccountService(_ context.Context, accountID, serviceID string) error {
	out := r.account[:0]
	for _, g := range r.account {
		if g.AccountID != accountID || g.ServiceID != serviceID {
			out = append(out, g)
		}
	}
	r.account = out
	return nil
}

// ── credentials ──────────────────────────────────────────────────────────────

// plainVerifier stores secrets as "v<version>:<secret>" and asks for a rehash
// of anything below version 2.
type plainVerifier struct{}

func (plainVerifier) Verify(stored, candidate string) (bool, bool, error) {
	switch stored {
	case "v2:" + candidate:
		return true, false, nil
	case "v1:" + candidate:
		return true, true, nil
	default:
		return false, false, nil
	}
}

func (plainVerifier) Hash(secret string) (string, error) { return "v2:" + secret, nil }

// ── fixtures ─────────────────────────────────────────────────────────────────

// billingFixture models customer C holding "billing", which depends on
// "reports". admin1 and user1 belong to C; user1 has no account grants.
type billingFixture struct {
	services  *stubServiceRepo
	grants    *stubGrantRepo
	accounts  *stubAccountRepo
	customers stubCustomerRepo
}

func newBillingFixture() *billingFixture {
	services := newStubServiceRepo(
		domain.Service{ID: "svc-billing", Name: "billing"},
		domain.Service{ID: "svc-reports", Name: "reports"},
		domain.Service{ID: "svc-maint", Name: "maint", Locked: true},
		domain.Service{ID: "svc-other", Name: "other"},
	)
	services.edges = []domain.ServiceDependency{{ServiceID: "svc-billing", DependencyID: "svc-reports"}}

	grants := &stubGrantRepo{customer: []domain.CustomerService{
		{CustomerID: "C", ServiceID: "svc-billing"},
		{CustomerID: "C", ServiceID: "svc-maint"},
	}}

	accounts := newStubAccountRepo(
		domain.Account{ID: "admin1", Name: "admin1", CustomerID: "C", Admin: true, PasswordHash: "v2:secret"},
		domain.Account{ID: "user1", Name: "user1", CustomerID: "C", PasswordHash: "v1:secret"},
		domain.Account{ID: "user2", Name: "user2", CustomerID: "C", PasswordHash: "v2:secret"},
		domain.Account{ID: "outsider", Name: "outsider", CustomerID: "D", Admin: true, PasswordHash: "v2:secret"},
		domain.Account{ID: "root", Name: "root", CustomerID: "R", Root: true, PasswordHash: "v2:secret"},
	)

	customers := stubCustomerRepo{
		"C": {ID: "C", Name: "Customer C"},
		"D": {ID: "D", Name: "Customer D"},
		"R": {ID: "R", Name: "Operators"},
	}

	return &billingFixture{services: services, grants: grants, accounts: accounts, customers: customers}
}

func (f *billingFixture) account(id string) *domain.Account {
	a := f.accounts.get(id)
	return &a
}
