package ports

import (
	"context"
	"time"

	"github.com/homeinfo/his/internal/core/domain"
)

// SessionRepository is the durable session store.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// FindByToken returns domain.ErrNoSuchSession when absent.
	FindByToken(ctx context.Context, token string) (*domain.Session, error)
	// Update replaces end and login of an existing session.
	// It returns domain.ErrNoSuchSession when absent.
	Update(ctx context.Context, session *domain.Session) error
	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes and returns every session whose end is before
	// the given instant.
	DeleteExpired(ctx context.Context, before time.Time) ([]domain.Session, error)
	// List returns the sessions of the given accounts, or all sessions when
	// accountIDs is nil.
	List(ctx context.Context, accountIDs []string) ([]domain.Session, error)
}
