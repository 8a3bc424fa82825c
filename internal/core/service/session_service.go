package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/core/ports"
	"github.com/homeinfo/his/internal/pkg/metrics"
)

// OwnSession is the token alias for the caller's own session.
const OwnSession = "!"

type sessionService struct {
	store    *SessionStore
	cache    ports.SessionCache
	accounts ports.AccountRepository
	verifier ports.CredentialVerifier
	now      func() time.Time
	log      zerolog.Logger
}

// NewSessionService returns a ports.SessionService. Reads and writes of
// existing sessions go through cache so that it reflects every change.
func NewSessionService(
	store *SessionStore,
	cache ports.SessionCache,
	accounts ports.AccountRepository,
	verifier ports.CredentialVerifier,
	log zerolog.Logger,
) ports.SessionService {
	return &sessionService{
		store:    store,
		cache:    cache,
		accounts: accounts,
		verifier: verifier,
		now:      time.Now,
		log:      log,
	}
}

func (s *sessionService) Login(ctx context.Context, name, secret string, duration time.Duration) (*domain.Session, error) {
	if name == "" || secret == "" {
		return nil, domain.ErrMissingCredentials
	}

	duration, err := s.store.Policy().Resolve(duration)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNoSuchAccount) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	now := s.now().UTC()
	if !account.CanLogin(now) {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		s.log.Warn().Str("account_id", account.ID).Msg("login refused for locked account")
		return nil, domain.ErrAccountLocked
	}

	ok, rehash, err := s.verifier.Verify(account.PasswordHash, secret)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		account.FailedLogins++
		if err := s.accounts.Update(ctx, account); err != nil {
			s.log.Error().Err(err).Str("account_id", account.ID).Msg("failed to record failed login")
		}
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	account.FailedLogins = 0
	account.LastLogin = &now
	if rehash {
		hash, err := s.verifier.Hash(secret)
		if err != nil {
			s.log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to rehash secret")
		} else {
			account.PasswordHash = hash
		}
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	session, err := s.store.Create(ctx, account, duration)
	if err != nil {
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, rc domain.RequestContext, token string) (*domain.SessionSnapshot, error) {
	return s.accessible(ctx, rc, token)
}

func (s *sessionService) Renew(ctx context.Context, rc domain.RequestContext, token string, duration time.Duration) (*domain.SessionSnapshot, error) {
	duration, err := s.store.Policy().Resolve(duration)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.accessible(ctx, rc, token)
	if err != nil {
		return nil, err
	}
	end, err := s.store.RenewalEnd(ctx, snapshot.AccountID, duration)
	if err != nil {
		return nil, err
	}

	renewed, err := s.cache.Refresh(ctx, snapshot.Token, end, false)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", renewed.AccountID).Dur("duration", duration).Msg("session renewed")
	return renewed, nil
}

func (s *sessionService) Close(ctx context.Context, rc domain.RequestContext, token string) (string, error) {
	snapshot, err := s.accessible(ctx, rc, token)
	if err != nil {
		return "", err
	}
	if err := s.cache.Close(ctx, snapshot.Token); err != nil {
		return "", err
	}

	s.log.Info().Str("account_id", snapshot.AccountID).Msg("session closed")
	return snapshot.Token, nil
}

func (s *sessionService) List(ctx context.Context, rc domain.RequestContext) ([]domain.Session, error) {
	switch {
	case rc.Account.Root:
		return s.store.List(ctx, nil)
	case rc.Account.Admin:
		accounts, err := s.accounts.ListByCustomer(ctx, rc.Account.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		ids := make([]string, 0, len(accounts))
		for _, a := range accounts {
			ids = append(ids, a.ID)
		}
		return s.store.List(ctx, ids)
	default:
		return nil, domain.ErrNotAuthorized
	}
}

// accessible loads the session behind token and hides it from callers that
// may not see it.
func (s *sessionService) accessible(ctx context.Context, rc domain.RequestContext, token string) (*domain.SessionSnapshot, error) {
	if token == OwnSession {
		token = rc.Session.Token
	}

	snapshot, err := s.cache.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	caller := rc.Account
	if caller.Root || snapshot.AccountID == caller.ID {
		return snapshot, nil
	}
	if !caller.Admin {
		return nil, domain.ErrNoSuchSession
	}

	owner, err := s.accounts.FindByID(ctx, snapshot.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNoSuchAccount) {
			return nil, domain.ErrNoSuchSession
		}
		return nil, err
	}
	if !caller.Manages(owner) {
		return nil, domain.ErrNoSuchSession
	}
	return snapshot, nil
}
