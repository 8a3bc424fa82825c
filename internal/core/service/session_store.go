package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/core/ports"
)

// SessionStore owns the session lifecycle on top of the durable repository.
type SessionStore struct {
	repo     ports.SessionRepository
	accounts ports.AccountRepository
	policy   domain.DurationPolicy
	now      func() time.Time
	log      zerolog.Logger
}

// NewSessionStore returns a SessionStore enforcing policy.
func NewSessionStore(repo ports.SessionRepository, accounts ports.AccountRepository, policy domain.DurationPolicy, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		repo:     repo,
		accounts: accounts,
		policy:   policy,
		now:      time.Now,
		log:      log,
	}
}

// Policy returns the duration policy of the store.
func (s *SessionStore) Policy() domain.DurationPolicy { return s.policy }

// Create opens a login session for account lasting duration.
func (s *SessionStore) Create(ctx context.Context, account *domain.Account, duration time.Duration) (*domain.Session, error) {
	if err := s.policy.Validate(duration); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &domain.Session{
		Token:     newToken(),
		AccountID: account.ID,
		Start:     now,
		End:       now.Add(duration),
		Login:     true,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().Str("account_id", account.ID).Dur("duration", duration).Msg("session opened")
	return session, nil
}

// Get returns the stored session or domain.ErrNoSuchSession.
func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// Delete removes a session. Absent sessions are ignored.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.repo.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Renew pushes the end of a session to now + duration. The owning account
// must still be usable, otherwise domain.ErrAccountLocked.
func (s *SessionStore) Renew(ctx context.Context, token string, duration time.Duration) (*domain.Session, error) {
	if err := s.policy.Validate(duration); err != nil {
		return nil, err
	}

	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("renew session: %w", err)
	}
	end, err := s.RenewalEnd(ctx, session.AccountID, duration)
	if err != nil {
		return nil, err
	}

	session.End = end
	session.Login = false
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("renew session: %w", err)
	}
	return session, nil
}

// RenewalEnd validates a renewal of a session owned by accountID and returns
// the new end. Renewed sessions are never login sessions.
func (s *SessionStore) RenewalEnd(ctx context.Context, accountID string, duration time.Duration) (time.Time, error) {
	if err := s.policy.Validate(duration); err != nil {
		return time.Time{}, err
	}
	if err := s.checkAccount(ctx, accountID); err != nil {
		return time.Time{}, err
	}
	return s.now().UTC().Add(duration), nil
}

// Update applies an already validated end and login flag.
func (s *SessionStore) Update(ctx context.Context, token string, end time.Time, login bool) (*domain.Session, error) {
	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	session.End = end.UTC()
	session.Login = login
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// SweepExpired deletes and returns every session that ended before the given
// instant. A zero instant means now.
func (s *SessionStore) SweepExpired(ctx context.Context, before time.Time) ([]domain.Session, error) {
	if before.IsZero() {
		before = s.now()
	}
	swept, err := s.repo.DeleteExpired(ctx, before.UTC())
	if err != nil {
		return swept, fmt.Errorf("sweep sessions: %w", err)
	}
	return swept, nil
}

// List returns sessions of the given accounts, or all when accountIDs is nil.
func (s *SessionStore) List(ctx context.Context, accountIDs []string) ([]domain.Session, error) {
	sessions, err := s.repo.List(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionStore) checkAccount(ctx context.Context, accountID string) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNoSuchAccount) {
			return domain.ErrAccountLocked
		}
		return err
	}
	if !account.Usable(s.now()) {
		return domain.ErrAccountLocked
	}
	return nil
}

const tokenBytes = 16

// newToken returns 128 random bits as 32 hex characters.
func newToken() string {
	b := make([]byte, tokenBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
