package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Collection names.
const (
	collectionSessions            = "sessions"
	collectionAccounts            = "accounts"
	collectionCustomers           = "customers"
	collectionServices            = "services"
	collectionServiceDependencies = "service_dependencies"
	collectionCustomerServices    = "customer_services"
	collectionAccountServices     = "account_services"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	AppName  string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(timeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the unique and lookup indexes every collection needs.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		collectionSessions: {
			{Keys: bson.D{{Key: "account", Value: 1}}},
			{Keys: bson.D{{Key: "end", Value: 1}}},
		},
		collectionAccounts: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "customer", Value: 1}}},
		},
		collectionServices: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		collectionServiceDependencies: {
			{Keys: bson.D{{Key: "service", Value: 1}, {Key: "dependency", Value: 1}}, Options: unique},
		},
		collectionCustomerServices: {
			{Keys: bson.D{{Key: "customer", Value: 1}, {Key: "service", Value: 1}}, Options: unique},
		},
		collectionAccountServices: {
			{Keys: bson.D{{Key: "account", Value: 1}, {Key: "service", Value: 1}}, Options: unique},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}

func notFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
