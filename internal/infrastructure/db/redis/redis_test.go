package redis

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type recordingEvicter struct {
	mu     sync.Mutex
	tokens []string
}

func (e *recordingEvicter) Evict(token string) {
	e.mu.Lock()
	e.tokens = append(e.tokens, token)
	e.mu.Unlock()
}

func (e *recordingEvicter) seen() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.tokens)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = Connect(context.Background(), Config{Addr: mr.Addr(), Timeout: 200 * time.Millisecond})
	require.Error(t, err)
}

func TestInvalidator_EvictsForeignTokens(t *testing.T) {
	_, client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := NewInvalidator(client, "node-a", zerolog.Nop())
	remote := NewInvalidator(client, "node-b", zerolog.Nop())
	evicter := &recordingEvicter{}

	done := make(chan error, 1)
	go func() { done <- local.Listen(ctx, evicter) }()

	require.Eventually(t, func() bool {
		subs, err := client.PubSubNumSub(ctx, InvalidationChannel).Result()
		return err == nil && subs[InvalidationChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, local.Invalidate(ctx, "own-token"))
	require.NoError(t, remote.Invalidate(ctx, "foreign-token"))

	require.Eventually(t, func() bool {
		return slices.Contains(evicter.seen(), "foreign-token")
	}, 2*time.Second, 10*time.Millisecond)
	require.NotContains(t, evicter.seen(), "own-token")

	cancel()
	require.NoError(t, <-done)
}

func TestInvalidator_RandomNode(t *testing.T) {
	_, client := newTestClient(t)

	a := NewInvalidator(client, "", zerolog.Nop())
	b := NewInvalidator(client, "", zerolog.Nop())
	require.NotEmpty(t, a.Node())
	require.NotEqual(t, a.Node(), b.Node())
}

func TestSweepLock(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	a := NewSweepLock(client, time.Minute)
	b := NewSweepLock(client, time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// Releasing a lock held by someone else is a no-op.
	require.NoError(t, b.Release(ctx))
	require.True(t, mr.Exists(sweepLockKey))

	require.NoError(t, a.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// The lock expires on its own.
	mr.FastForward(2 * time.Minute)
	ok, err = a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}
