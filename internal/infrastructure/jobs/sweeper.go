package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/pkg/metrics"
)

const defaultSweepInterval = 5 * time.Minute

// Expirer deletes and returns sessions that ended before an instant.
type Expirer interface {
	SweepExpired(ctx context.Context, before time.Time) ([]domain.Session, error)
}

// Evicter drops tokens from a local cache.
type Evicter interface {
	Evict(token string)
}

// Locker elects a single sweeping replica.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Sweeper periodically removes expired sessions from the durable store.
type Sweeper struct {
	store    Expirer
	cache    Evicter
	lock     Locker
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewSweeper creates a Sweeper. cache and lock may be nil. If interval <= 0,
// defaultSweepInterval is used.
func NewSweeper(store Expirer, cache Evicter, lock Locker, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		cache:    cache,
		lock:     lock,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run sweeps once per interval until ctx is cancelled. Failed rounds are
// logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error().Err(err).Msg("session sweep failed")
			}
		}
	}
}

// RunOnce performs a single sweep and returns the number of sessions removed.
// It returns zero without sweeping when another replica holds the lock.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			return 0, err
		}
		if !acquired {
			s.log.Debug().Msg("sweep lock held elsewhere, skipping round")
			return 0, nil
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn().Err(err).Msg("failed to release sweep lock")
			}
		}()
	}

	swept, err := s.store.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}

	if s.cache != nil {
		for _, session := range swept {
			s.cache.Evict(session.Token)
		}
	}
	metrics.SessionsSweptTotal.Add(float64(len(swept)))

	if len(swept) > 0 {
		s.log.Info().Int("count", len(swept)).Msg("expired sessions swept")
	}
	return len(swept), nil
}
