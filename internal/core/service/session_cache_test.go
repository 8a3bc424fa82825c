package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/homeinfo/his/internal/core/domain"
)

type recordingNotifier struct {
	mu     sync.Mutex
	tokens []string
}

func (n *recordingNotifier) Invalidate(_ context.Context, token string) error {
	n.mu.Lock()
	n.tokens = append(n.tokens, token)
	n.mu.Unlock()
	return nil
}

// cancelingSource cancels the caller's context right after a successful read.
type cancelingSource struct {
	SessionSource
	cancel context.CancelFunc
}

func (s cancelingSource) Get(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.SessionSource.Get(ctx, token)
	s.cancel()
	return session, err
}

type cacheHarness struct {
	repo  *stubSessionRepo
	store *SessionStore
	clock *fakeClock
	cache *SessionCache
}

func newCacheHarness(t *testing.T, opts SessionCacheOptions) *cacheHarness {
	t.Helper()
	h := &cacheHarness{repo: newStubSessionRepo(), clock: newFakeClock(t0)}
	h.store = NewSessionStore(h.repo, newStubAccountRepo(), domain.DefaultDurationPolicy(), nopLog)
	h.store.now = h.clock.Now

	cache, err := NewSessionCache(h.store, opts, nopLog)
	if err != nil {
		t.Fatalf("NewSessionCache returned error: %v", err)
	}
	cache.now = h.clock.Now
	h.cache = cache
	return h
}

func (h *cacheHarness) seed(token string, lifetime time.Duration) domain.Session {
	s := domain.Session{Token: token, AccountID: "user1", Start: t0, End: t0.Add(lifetime), Login: true}
	h.repo.put(s)
	return s
}

func TestNeedsReload(t *testing.T) {
	alive := domain.SessionSnapshot{Start: t0, End: t0.Add(time.Hour)}
	entry := CacheEntry{Refreshed: t0, Snapshot: alive}

	tests := []struct {
		name    string
		entry   CacheEntry
		present bool
		now     time.Time
		want    string
	}{
		{"absent", CacheEntry{}, false, t0, LookupMiss},
		{"fresh", entry, true, t0.Add(time.Minute), LookupHit},
		{"stale", entry, true, t0.Add(time.Minute + time.Nanosecond), LookupStale},
		{"dead", CacheEntry{Refreshed: t0, Snapshot: domain.SessionSnapshot{Start: t0, End: t0.Add(time.Second)}}, true, t0.Add(time.Second), LookupDead},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyLookup(tc.entry, tc.present, tc.now, time.Minute); got != tc.want {
				t.Fatalf("ClassifyLookup = %s, want %s", got, tc.want)
			}
			if got := NeedsReload(tc.entry, tc.present, tc.now, time.Minute); got != (tc.want != LookupHit) {
				t.Fatalf("NeedsReload = %v for %s", got, tc.want)
			}
		})
	}
}

func TestSessionCache_Get_Freshness(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{Staleness: 60 * time.Second})
	h.seed("tok", 15*time.Minute)
	ctx := context.Background()

	if _, err := h.cache.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	// A change the cache has not seen yet.
	changed := t0.Add(20 * time.Minute)
	h.repo.put(domain.Session{Token: "tok", AccountID: "user1", Start: t0, End: changed})

	h.clock.Advance(60*time.Second - time.Nanosecond)
	got, err := h.cache.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.End.Equal(t0.Add(15 * time.Minute)) {
		t.Fatalf("expected cached end before staleness, got %v", got.End)
	}
	if n := h.repo.findCount(); n != 1 {
		t.Fatalf("expected one store read, got %d", n)
	}

	h.clock.Advance(2 * time.Nanosecond)
	got, err = h.cache.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.End.Equal(changed) {
		t.Fatalf("expected reloaded end %v, got %v", changed, got.End)
	}
	if n := h.repo.findCount(); n != 2 {
		t.Fatalf("expected two store reads, got %d", n)
	}
}

func TestSessionCache_Get_Unknown(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{})

	if _, err := h.cache.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNoSuchSession) {
		t.Fatalf("expected ErrNoSuchSession, got %v", err)
	}
	if h.cache.Len() != 0 {
		t.Fatalf("expected nothing cached")
	}
}

func TestSessionCache_Get_DeadSessionDeleted(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{Staleness: time.Minute})
	h.seed("tok", 30*time.Second)
	ctx := context.Background()

	if _, err := h.cache.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	h.clock.Advance(31 * time.Second)
	if _, err := h.cache.Get(ctx, "tok"); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if h.repo.has("tok") {
		t.Fatalf("expected dead session to be deleted from the store")
	}
	if h.cache.Len() != 0 {
		t.Fatalf("expected dead session to be evicted")
	}
	if _, err := h.cache.Get(ctx, "tok"); !errors.Is(err, domain.ErrNoSuchSession) {
		t.Fatalf("expected ErrNoSuchSession afterwards, got %v", err)
	}
}

func TestSessionCache_Refresh_ReadAfterWrite(t *testing.T) {
	notifier := &recordingNotifier{}
	h := newCacheHarness(t, SessionCacheOptions{Staleness: time.Hour, Notifier: notifier})
	h.seed("tok", 15*time.Minute)
	ctx := context.Background()

	if _, err := h.cache.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	end := t0.Add(25 * time.Minute)
	refreshed, err := h.cache.Refresh(ctx, "tok", end, false)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if !refreshed.End.Equal(end) || refreshed.Login {
		t.Fatalf("unexpected refreshed snapshot: %+v", refreshed)
	}

	got, err := h.cache.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.End.Equal(end) {
		t.Fatalf("expected read-after-write end %v, got %v", end, got.End)
	}
	if len(notifier.tokens) != 1 || notifier.tokens[0] != "tok" {
		t.Fatalf("expected one invalidation for tok, got %v", notifier.tokens)
	}
}

func TestSessionCache_Refresh_Unknown(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{})

	_, err := h.cache.Refresh(context.Background(), "missing", t0.Add(time.Minute), false)
	if !errors.Is(err, domain.ErrNoSuchSession) {
		t.Fatalf("expected ErrNoSuchSession, got %v", err)
	}
}

func TestSessionCache_Close(t *testing.T) {
	notifier := &recordingNotifier{}
	h := newCacheHarness(t, SessionCacheOptions{Notifier: notifier})
	h.seed("tok", 15*time.Minute)
	ctx := context.Background()

	if _, err := h.cache.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if err := h.cache.Close(ctx, "tok"); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := h.cache.Get(ctx, "tok"); !errors.Is(err, domain.ErrNoSuchSession) {
		t.Fatalf("expected ErrNoSuchSession after close, got %v", err)
	}
	if err := h.cache.Close(ctx, "tok"); err != nil {
		t.Fatalf("expected second Close to succeed, got %v", err)
	}
	if len(notifier.tokens) != 2 {
		t.Fatalf("expected two invalidations, got %v", notifier.tokens)
	}
}

func TestSessionCache_SweepThenGet(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{Staleness: time.Minute})
	h.seed("tok", 15*time.Minute)
	ctx := context.Background()

	if _, err := h.cache.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	h.clock.Advance(20 * time.Minute)
	swept, err := h.store.SweepExpired(ctx, time.Time{})
	if err != nil {
		t.Fatalf("SweepExpired returned error: %v", err)
	}
	if len(swept) != 1 {
		t.Fatalf("expected one swept session, got %d", len(swept))
	}

	if _, err := h.cache.Get(ctx, "tok"); !errors.Is(err, domain.ErrNoSuchSession) {
		t.Fatalf("expected ErrNoSuchSession, got %v", err)
	}
}

func TestSessionCache_CancelledReloadKeepsEntry(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{Staleness: time.Minute})
	h.seed("tok", 15*time.Minute)

	if _, err := h.cache.Get(context.Background(), "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	h.clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.cache.Get(ctx, "tok"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	entry, ok := h.cache.entries.Peek("tok")
	if !ok || !entry.Refreshed.Equal(t0) {
		t.Fatalf("expected previous entry untouched, got %+v (present=%v)", entry, ok)
	}
}

func TestSessionCache_CancelAfterReadDoesNotCommit(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{})
	h.seed("tok", 15*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.cache.source = cancelingSource{SessionSource: h.store, cancel: cancel}

	if _, err := h.cache.Get(ctx, "tok"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if h.cache.Len() != 0 {
		t.Fatalf("expected nothing committed")
	}
}

func TestSessionCache_Refresh_CancelledReloadDropsObsoleteEntry(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{Staleness: time.Hour})
	h.seed("tok", 15*time.Minute)

	if _, err := h.cache.Get(context.Background(), "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.cache.source = cancelingSource{SessionSource: h.store, cancel: cancel}

	end := t0.Add(25 * time.Minute)
	if _, err := h.cache.Refresh(ctx, "tok", end, false); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, ok := h.cache.entries.Peek("tok"); ok {
		t.Fatalf("expected the pre-write entry to be evicted")
	}

	h.cache.source = h.store
	got, err := h.cache.Get(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.End.Equal(end) || got.Login {
		t.Fatalf("expected written end %v, got %+v", end, got)
	}
}

func TestSessionCache_TransportErrorKeepsEntry(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{Staleness: time.Minute})
	h.seed("tok", 15*time.Minute)
	ctx := context.Background()

	if _, err := h.cache.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	h.clock.Advance(2 * time.Minute)
	h.repo.findErr = errors.New("connection reset")

	if _, err := h.cache.Get(ctx, "tok"); err == nil {
		t.Fatalf("expected error from broken store")
	}
	if _, ok := h.cache.entries.Peek("tok"); !ok {
		t.Fatalf("expected previous entry to survive a failed reload")
	}
}

func TestSessionCache_ConcurrentGetLoadsOnce(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{})
	h.seed("tok", 15*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.cache.Get(context.Background(), "tok"); err != nil {
				t.Errorf("Get returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := h.repo.findCount(); n != 1 {
		t.Fatalf("expected a single store read, got %d", n)
	}
}

func TestSessionCache_Capacity(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{Size: 2})
	ctx := context.Background()
	for _, tok := range []string{"a", "b", "c"} {
		h.seed(tok, 15*time.Minute)
		if _, err := h.cache.Get(ctx, tok); err != nil {
			t.Fatalf("Get(%s) returned error: %v", tok, err)
		}
	}
	if h.cache.Len() != 2 {
		t.Fatalf("expected capacity to bound the cache, got %d", h.cache.Len())
	}

	// Evicted entries only cost a reload.
	if _, err := h.cache.Get(ctx, "a"); err != nil {
		t.Fatalf("Get(a) after eviction returned error: %v", err)
	}
}

func TestSessionCache_Evict(t *testing.T) {
	h := newCacheHarness(t, SessionCacheOptions{Staleness: time.Hour})
	h.seed("tok", 15*time.Minute)
	ctx := context.Background()

	if _, err := h.cache.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	h.cache.Evict("tok")
	if _, err := h.cache.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if n := h.repo.findCount(); n != 2 {
		t.Fatalf("expected eviction to force a reload, got %d reads", n)
	}
}
