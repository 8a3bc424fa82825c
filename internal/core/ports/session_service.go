package ports

import (
	"context"
	"time"

	"github.com/homeinfo/his/internal/core/domain"
)

// SessionCache is the read path for sessions. It is implemented in-process
// by service.SessionCache and remotely by the cache client.
type SessionCache interface {
	Get(ctx context.Context, token string) (*domain.SessionSnapshot, error)
	Refresh(ctx context.Context, token string, end time.Time, login bool) (*domain.SessionSnapshot, error)
	Close(ctx context.Context, token string) error
}

// SessionService covers the session operations of the public API.
type SessionService interface {
	Login(ctx context.Context, name, secret string, duration time.Duration) (*domain.Session, error)
	Get(ctx context.Context, rc domain.RequestContext, token string) (*domain.SessionSnapshot, error)
	Renew(ctx context.Context, rc domain.RequestContext, token string, duration time.Duration) (*domain.SessionSnapshot, error)
	Close(ctx context.Context, rc domain.RequestContext, token string) (string, error)
	List(ctx context.Context, rc domain.RequestContext) ([]domain.Session, error)
}

// CredentialVerifier checks secrets against stored hashes.
type CredentialVerifier interface {
	// Verify reports whether candidate matches storedHash and whether the
	// hash should be upgraded to the current parameters.
	Verify(storedHash, candidate string) (ok bool, needsRehash bool, err error)
	Hash(secret string) (string, error)
}
