package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/homeinfo/his/internal/core/domain"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	CachePort string `env:"CACHE_PORT, default=8081"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Session SessionConfig
	// BcryptCost is the work factor new credential hashes are created with.
	BcryptCost int `env:"BCRYPT_COST, default=12"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=his"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SessionConfig struct {
	MinDuration     time.Duration `env:"SESSION_MIN_DURATION,     default=5m"`
	MaxDuration     time.Duration `env:"SESSION_MAX_DURATION,     default=30m"`
	DefaultDuration time.Duration `env:"SESSION_DEFAULT_DURATION, default=15m"`
	CacheStaleness  time.Duration `env:"SESSION_CACHE_STALENESS,  default=60s"`
	CacheSize       int           `env:"SESSION_CACHE_SIZE,       default=10000"`
	SweepInterval   time.Duration `env:"SESSION_SWEEP_INTERVAL,   default=5m"`
	// CacheURL points at a remote cache authority. Empty means in-process.
	CacheURL    string `env:"SESSION_CACHE_URL"`
	CacheSecret string `env:"SESSION_CACHE_SECRET"`
}

// DurationPolicy returns the configured session duration bounds.
func (s SessionConfig) DurationPolicy() domain.DurationPolicy {
	return domain.DurationPolicy{Min: s.MinDuration, Max: s.MaxDuration, Default: s.DefaultDuration}
}

// Development reports whether the process runs outside production.
func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	s := c.Session
	policy := s.DurationPolicy()
	if s.MinDuration <= 0 || s.MinDuration > s.MaxDuration {
		return errors.New("session duration bounds are inverted or empty")
	}
	if s.MinDuration%time.Minute != 0 || s.MaxDuration%time.Minute != 0 {
		return errors.New("session duration bounds must be whole minutes")
	}
	if err := policy.Validate(s.DefaultDuration); err != nil {
		return fmt.Errorf("default session duration %s: %w", s.DefaultDuration, err)
	}
	if s.CacheStaleness <= 0 || s.CacheSize <= 0 || s.SweepInterval <= 0 {
		return errors.New("session cache staleness, size and sweep interval must be positive")
	}
	return nil
}
