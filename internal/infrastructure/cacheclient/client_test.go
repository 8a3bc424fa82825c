package cacheclient

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/homeinfo/his/internal/core/domain"
	"github.com/homeinfo/his/internal/core/service"
	httpinfra "github.com/homeinfo/his/internal/infrastructure/http"
)

type memorySource struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func (m *memorySource) Get(_ context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, domain.ErrNoSuchSession
	}
	return &s, nil
}

func (m *memorySource) Update(_ context.Context, token string, end time.Time, login bool) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, domain.ErrNoSuchSession
	}
	s.End, s.Login = end, login
	m.sessions[token] = s
	return &s, nil
}

func (m *memorySource) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

func newAuthority(t *testing.T, secret string) (*httptest.Server, *memorySource) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	source := &memorySource{sessions: map[string]domain.Session{
		"live":    {Token: "live", AccountID: "user1", Start: now.Add(-time.Minute), End: now.Add(15 * time.Minute), Login: true},
		"expired": {Token: "expired", AccountID: "user1", Start: now.Add(-time.Hour), End: now.Add(-time.Minute)},
	}}

	cache, err := service.NewSessionCache(source, service.SessionCacheOptions{}, zerolog.Nop())
	require.NoError(t, err)

	router := httpinfra.NewCacheRouter(httpinfra.CacheRouterConfig{
		Cache:      cache,
		Secret:     secret,
		Registerer: prometheus.NewRegistry(),
		Log:        zerolog.Nop(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, source
}

func TestClient_RoundTrip(t *testing.T) {
	srv, source := newAuthority(t, "secret")
	client, err := New(srv.URL, "secret", "api", time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := client.Get(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, "user1", got.AccountID)
	require.True(t, got.Login)

	end := time.Now().UTC().Add(25 * time.Minute).Truncate(time.Second)
	refreshed, err := client.Refresh(ctx, "live", end, false)
	require.NoError(t, err)
	require.True(t, refreshed.End.Equal(end))
	require.False(t, refreshed.Login)

	require.NoError(t, client.Close(ctx, "live"))
	_, ok := source.sessions["live"]
	require.False(t, ok)

	// Closing twice is fine.
	require.NoError(t, client.Close(ctx, "live"))
}

func TestClient_MapsErrors(t *testing.T) {
	srv, _ := newAuthority(t, "")
	client, err := New(srv.URL, "", "api", time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNoSuchSession)

	_, err = client.Get(ctx, "expired")
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	_, err = client.Refresh(ctx, "missing", time.Now().Add(time.Minute), false)
	require.ErrorIs(t, err, domain.ErrNoSuchSession)
}

func TestClient_WrongSecret(t *testing.T) {
	srv, _ := newAuthority(t, "secret")
	client, err := New(srv.URL, "other", "api", time.Second)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "live")
	require.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestClient_Unreachable(t *testing.T) {
	srv, _ := newAuthority(t, "")
	srv.Close()
	client, err := New(srv.URL, "", "api", time.Second)
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "live")
	require.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", "", "api", 0)
	require.Error(t, err)
}
