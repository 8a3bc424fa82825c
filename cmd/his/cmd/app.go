package cmd

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/homeinfo/his/internal/core/ports"
	"github.com/homeinfo/his/internal/core/service"
	"github.com/homeinfo/his/internal/infrastructure/cacheclient"
	"github.com/homeinfo/his/internal/infrastructure/db/mongo"
	"github.com/homeinfo/his/internal/infrastructure/db/redis"
	"github.com/homeinfo/his/internal/infrastructure/http/handlers"
	"github.com/homeinfo/his/internal/infrastructure/jobs"
	"github.com/homeinfo/his/pkg/logger"
)

const (
	connectTimeout  = 10 * time.Second
	cacheTimeout    = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// app holds the shared infrastructure of every subcommand.
type app struct {
	mongo *mongodrv.Client
	db    *mongodrv.Database
	redis *goredis.Client

	accounts *mongo.AccountRepository
	services *mongo.ServiceRepository
	grants   *mongo.GrantRepository
	sessions *service.SessionStore

	invalidator *redis.Invalidator
	// local is nil when sessions are cached by a remote authority.
	local *service.SessionCache
	cache ports.SessionCache

	log zerolog.Logger
}

func newApp(ctx context.Context, localCache bool) (*app, error) {
	log := logger.Get()
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  appName,
		Timeout:  connectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB, Timeout: connectTimeout})
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	a := &app{
		mongo:    client,
		db:       db,
		redis:    rdb,
		accounts: mongo.NewAccountRepository(db),
		services: mongo.NewServiceRepository(db),
		grants:   mongo.NewGrantRepository(db),
		log:      log,
	}
	a.sessions = service.NewSessionStore(
		mongo.NewSessionRepository(db), a.accounts, cfg.Session.DurationPolicy(), log)
	a.invalidator = redis.NewInvalidator(rdb, "", log)

	if localCache || cfg.Session.CacheURL == "" {
		a.local, err = service.NewSessionCache(a.sessions, service.SessionCacheOptions{
			Staleness: cfg.Session.CacheStaleness,
			Size:      cfg.Session.CacheSize,
			Notifier:  a.invalidator,
		}, log)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.cache = a.local
		return a, nil
	}

	remote, err := cacheclient.New(cfg.Session.CacheURL, cfg.Session.CacheSecret, appName, cacheTimeout)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to build session cache client: %w", err)
	}
	a.cache = remote
	log.Info().Str("url", cfg.Session.CacheURL).Msg("using remote session cache")
	return a, nil
}

func (a *app) entitlements() (*service.EntitlementStore, ports.EntitlementService) {
	store := service.NewEntitlementStore(a.grants, a.services, a.log)
	resolver := service.NewEntitlementResolver(store, a.log)
	return store, service.NewEntitlementService(resolver, store, a.services, a.accounts, a.log)
}

func (a *app) checks() []handlers.Check {
	return []handlers.Check{handlers.MongoCheck(a.db), handlers.RedisCheck(a.redis)}
}

func (a *app) sweeper() *jobs.Sweeper {
	lock := redis.NewSweepLock(a.redis, cfg.Session.SweepInterval)
	if a.local == nil {
		return jobs.NewSweeper(a.sessions, nil, lock, cfg.Session.SweepInterval, a.log)
	}
	return jobs.NewSweeper(a.sessions, a.local, lock, cfg.Session.SweepInterval, a.log)
}

// startBackground runs the sweeper and, with a local cache, the invalidation
// listener until ctx is cancelled.
func (a *app) startBackground(ctx context.Context) {
	if a.local == nil {
		return
	}
	a.sweeper().Start(ctx)
	go func() {
		if err := a.invalidator.Listen(ctx, a.local); err != nil && ctx.Err() == nil {
			a.log.Error().Err(err).Msg("session invalidation listener stopped")
		}
	}()
}

// checkIntegrity logs service dependency cycles. They never block startup.
func (a *app) checkIntegrity(ctx context.Context, store *service.EntitlementStore) {
	cycles, err := store.CheckIntegrity(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("service integrity check failed")
		return
	}
	if len(cycles) == 0 {
		a.log.Info().Msg("service dependency graph is acyclic")
	}
}

func (a *app) close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if err := a.redis.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close redis client")
	}
	if err := a.mongo.Disconnect(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to disconnect from mongodb")
	}
}
