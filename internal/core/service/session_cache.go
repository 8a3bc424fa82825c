package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/pkg/metrics"
)

const (
	// DefaultStaleness is how long a cached session is served without
	// reconciling against the durable store.
	DefaultStaleness = 60 * time.Second
	// DefaultCacheSize bounds the number of cached sessions.
	DefaultCacheSize = 10000

	lockShards = 64
)

// SessionSource is the authoritative side of the cache.
type SessionSource interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Update(ctx context.Context, token string, end time.Time, login bool) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// Notifier tells other cache nodes that a token changed.
type Notifier interface {
	Invalidate(ctx context.Context, token string) error
}

// CacheEntry is a snapshot and the instant it was last reconciled.
type CacheEntry struct {
	Refreshed time.Time
	Snapshot  domain.SessionSnapshot
}

// Lookup results, also used as metric labels.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupStale = "stale"
	LookupDead  = "dead"
)

// ClassifyLookup applies the staleness policy to a cache lookup.
// Anything but LookupHit requires a reload.
func ClassifyLookup(entry CacheEntry, present bool, now time.Time, staleness time.Duration) string {
	switch {
	case !present:
		return LookupMiss
	case now.Sub(entry.Refreshed) > staleness:
		return LookupStale
	case !entry.Snapshot.Alive(now):
		return LookupDead
	default:
		return LookupHit
	}
}

// NeedsReload reports whether a lookup must go to the durable store.
func NeedsReload(entry CacheEntry, present bool, now time.Time, staleness time.Duration) bool {
	return ClassifyLookup(entry, present, now, staleness) != LookupHit
}

// SessionCacheOptions configures a SessionCache. Zero values take defaults.
type SessionCacheOptions struct {
	Staleness time.Duration
	Size      int
	Notifier  Notifier
}

// SessionCache serves possibly stale session snapshots from memory and
// reloads them from the durable store when absent, stale or dead.
//
// Operations on the same token are mutually exclusive. A reload either
// replaces the entry completely or leaves the previous one in place.
type SessionCache struct {
	source    SessionSource
	entries   *lru.Cache[string, CacheEntry]
	locks     [lockShards]sync.Mutex
	staleness time.Duration
	notifier  Notifier
	now       func() time.Time
	log       zerolog.Logger
}

// NewSessionCache returns a SessionCache in front of source.
func NewSessionCache(source SessionSource, opts SessionCacheOptions, log zerolog.Logger) (*SessionCache, error) {
	if opts.Staleness <= 0 {
		opts.Staleness = DefaultStaleness
	}
	if opts.Size <= 0 {
		opts.Size = DefaultCacheSize
	}

	entries, err := lru.New[string, CacheEntry](opts.Size)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}

	return &SessionCache{
		source:    source,
		entries:   entries,
		staleness: opts.Staleness,
		notifier:  opts.Notifier,
		now:       time.Now,
		log:       log,
	}, nil
}

// Get returns the session for token, reloading it when needed. Dead sessions
// found in the store are deleted and reported as domain.ErrSessionExpired.
func (c *SessionCache) Get(ctx context.Context, token string) (*domain.SessionSnapshot, error) {
	mu := c.lock(token)
	mu.Lock()
	defer mu.Unlock()

	entry, ok := c.entries.Get(token)
	result := ClassifyLookup(entry, ok, c.now(), c.staleness)
	metrics.SessionCacheLookupsTotal.WithLabelValues(result).Inc()

	if result == LookupHit {
		snapshot := entry.Snapshot
		return &snapshot, nil
	}
	return c.reload(ctx, token)
}

// Refresh writes end and login through to the store and reloads the entry,
// bypassing the staleness check.
func (c *SessionCache) Refresh(ctx context.Context, token string, end time.Time, login bool) (*domain.SessionSnapshot, error) {
	mu := c.lock(token)
	mu.Lock()
	defer mu.Unlock()

	if _, err := c.source.Update(ctx, token, end, login); err != nil {
		if errors.Is(err, domain.ErrNoSuchSession) {
			c.evict(token)
		}
		return nil, err
	}
	// The write made the cached snapshot obsolete even if the reload fails.
	c.evict(token)
	c.notify(ctx, token)

	return c.reload(ctx, token)
}

// Close deletes the session from the store and evicts it. Closing an absent
// session is not an error; the entry is evicted either way.
func (c *SessionCache) Close(ctx context.Context, token string) error {
	mu := c.lock(token)
	mu.Lock()
	defer mu.Unlock()

	err := c.source.Delete(ctx, token)
	c.evict(token)
	c.notify(ctx, token)

	if err != nil && !errors.Is(err, domain.ErrNoSuchSession) {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// Evict drops the cached entry for token without touching the store.
func (c *SessionCache) Evict(token string) {
	mu := c.lock(token)
	mu.Lock()
	defer mu.Unlock()

	c.evict(token)
}

// Len returns the number of cached sessions.
func (c *SessionCache) Len() int {
	return c.entries.Len()
}

func (c *SessionCache) reload(ctx context.Context, token string) (*domain.SessionSnapshot, error) {
	started := time.Now()
	observe := func(outcome string) {
		metrics.SessionCacheReloadDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	}

	session, err := c.source.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNoSuchSession) {
			c.evict(token)
			observe("no_such_session")
			return nil, domain.ErrNoSuchSession
		}
		observe("error")
		return nil, fmt.Errorf("reload session: %w", err)
	}

	now := c.now()
	if !session.Alive(now) {
		c.evict(token)
		if err := c.source.Delete(ctx, token); err != nil {
			c.log.Warn().Err(err).Str("account_id", session.AccountID).Msg("failed to delete dead session")
		} else {
			c.log.Info().Str("account_id", session.AccountID).Time("end", session.End).Msg("dead session deleted")
		}
		observe("expired")
		return nil, domain.ErrSessionExpired
	}

	// A cancelled caller must not commit what it read.
	if err := ctx.Err(); err != nil {
		observe("error")
		return nil, err
	}

	snapshot := session.Snapshot()
	c.entries.Add(token, CacheEntry{Refreshed: now, Snapshot: snapshot})
	metrics.SessionCacheEntries.Set(float64(c.entries.Len()))
	observe("ok")

	c.log.Debug().Str("account_id", snapshot.AccountID).Msg("session reloaded")
	return &snapshot, nil
}

func (c *SessionCache) evict(token string) {
	if c.entries.Remove(token) {
		metrics.SessionCacheEntries.Set(float64(c.entries.Len()))
	}
}

func (c *SessionCache) notify(ctx context.Context, token string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Invalidate(ctx, token); err != nil {
		c.log.Warn().Err(err).Msg("failed to broadcast session invalidation")
	}
}

// lock maps a token deterministically to one of the mutex shards.
func (c *SessionCache) lock(token string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return &c.locks[h.Sum32()%lockShards]
}
