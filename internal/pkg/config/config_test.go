package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "8081", cfg.CachePort)
	require.Equal(t, "his", cfg.Mongo.Database)
	require.Equal(t, 12, cfg.BcryptCost)
	require.Equal(t, 60*time.Second, cfg.Session.CacheStaleness)
	require.Equal(t, 10000, cfg.Session.CacheSize)
	require.Empty(t, cfg.Session.CacheURL)

	policy := cfg.Session.DurationPolicy()
	require.Equal(t, 5*time.Minute, policy.Min)
	require.Equal(t, 30*time.Minute, policy.Max)
	require.Equal(t, 15*time.Minute, policy.Default)
	require.True(t, cfg.Development())
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                      "production",
		"SESSION_MAX_DURATION":     "60m",
		"SESSION_DEFAULT_DURATION": "45m",
		"SESSION_CACHE_URL":        "http://cache:8081",
		"REDIS_DB":                 "2",
	}))
	require.NoError(t, err)

	require.Equal(t, 45*time.Minute, cfg.Session.DefaultDuration)
	require.Equal(t, "http://cache:8081", cfg.Session.CacheURL)
	require.Equal(t, 2, cfg.Redis.DB)
	require.False(t, cfg.Development())
}

func TestLoadWith_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"inverted bounds":      {"SESSION_MIN_DURATION": "40m"},
		"default outside":      {"SESSION_DEFAULT_DURATION": "45m"},
		"fractional bound":     {"SESSION_MIN_DURATION": "90s"},
		"zero staleness":       {"SESSION_CACHE_STALENESS": "0s"},
		"malformed duration":   {"SESSION_SWEEP_INTERVAL": "often"},
		"malformed cache size": {"SESSION_CACHE_SIZE": "many"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
			require.Error(t, err)
		})
	}
}
