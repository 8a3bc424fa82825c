package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock makes sure only one replica sweeps expired sessions per interval.
type SweepLock struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

func NewSweepLock(client *redis.Client, ttl time.Duration) *SweepLock {
	return &SweepLock{client: client, owner: uuid.NewString(), ttl: ttl}
}

// Acquire reports whether this replica now holds the lock.
func (l *SweepLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, sweepLockKey, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire sweep lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock if this replica still holds it.
func (l *SweepLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{sweepLockKey}, l.owner).Err(); err != nil {
		return fmt.Errorf("release sweep lock: %w", err)
	}
	return nil
}
