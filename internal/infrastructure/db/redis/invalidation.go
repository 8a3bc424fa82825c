package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Evicter drops a token from a local cache.
type Evicter interface {
	Evict(token string)
}

// Invalidator broadcasts session changes between cache nodes.
// Messages have the form <node>:<token>; a node ignores its own messages.
type Invalidator struct {
	client *redis.Client
	node   string
	log    zerolog.Logger
}

// NewInvalidator returns an Invalidator for this node. An empty node id is
// replaced by a random one.
func NewInvalidator(client *redis.Client, node string, log zerolog.Logger) *Invalidator {
	if node == "" {
		node = uuid.NewString()
	}
	return &Invalidator{client: client, node: node, log: log}
}

// Node returns the id this node publishes under.
func (i *Invalidator) Node() string { return i.node }

// Invalidate tells every other node to drop token.
func (i *Invalidator) Invalidate(ctx context.Context, token string) error {
	if err := i.client.Publish(ctx, InvalidationChannel, i.node+":"+token).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Listen evicts tokens announced by other nodes until ctx is cancelled.
func (i *Invalidator) Listen(ctx context.Context, cache Evicter) error {
	sub := i.client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", InvalidationChannel, err)
	}
	i.log.Info().Str("node", i.node).Msg("listening for session invalidations")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			node, token, found := strings.Cut(msg.Payload, ":")
			if !found || token == "" {
				i.log.Warn().Str("payload", msg.Payload).Msg("malformed invalidation message")
				continue
			}
			if node == i.node {
				continue
			}
			cache.Evict(token)
		}
	}
}
