package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"alumni-portal/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrNotInitialized is returned by Shutdown when Init never succeeded.
	ErrNotInitialized = errors.New("mongo client not initialized")
	// ErrShutdown is returned by Shutdown after the client was already closed.
	ErrShutdown = errors.New("mongo client already shut down")
)

var (
	drv driver = mongoDriver{}

	client   *mongo.Client
	db       *mongo.Database
	closed   bool
	mu       sync.Mutex
	sleepFor = time.Sleep

	// cached at connect time; a hint, not a guarantee
	isReplicaSet atomic.Bool
)

// IsReplicaSet reports whether the connected deployment is a replica set.
func IsReplicaSet() bool { return isReplicaSet.Load() }

// Init connects to MongoDB, retrying the initial connection MONGO_CONNECT_RETRIES
// times with a fixed MONGO_RETRY_DELAY_SEC delay. The first successful call
// wins; later calls return the same handles.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	mu.Lock()
	defer mu.Unlock()

	if client != nil && db != nil {
		return client, db, nil
	}

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetAppName("alumni-portal")

	attempts := max(cfg.MongoConnectRetries, 1)
	delay := time.Duration(cfg.MongoRetryDelaySec) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		cli, err := connectOnce(ctx, opts)
		if err == nil {
			client = cli
			db = cli.Database(cfg.MongoDBName)
			closed = false
			probeReplicaSet(ctx, cli, log)
			log.Info("successfully connected to mongo", "db", cfg.MongoDBName, "attempt", attempt, "replica_set", IsReplicaSet())
			return client, db, nil
		}

		lastErr = err
		log.Warn("mongo connection attempt failed", "attempt", attempt, "of", attempts, "error", err)
		if attempt < attempts && delay > 0 {
			sleepFor(delay)
		}
	}

	log.Error("giving up on mongo", "attempts", attempts, "error", lastErr)
	return nil, nil, fmt.Errorf("connect to mongo after %d attempts: %w", attempts, lastErr)
}

func connectOnce(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli, err := drv.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := drv.Ping(ctx, cli); err != nil {
		_ = drv.Disconnect(ctx, cli)
		return nil, err
	}
	return cli, nil
}

func probeReplicaSet(ctx context.Context, cli *mongo.Client, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	rs, err := drv.IsReplicaSet(ctx, cli)
	if err != nil {
		log.Warn("replica set probe failed, assuming standalone", "error", err)
	}
	isReplicaSet.Store(rs)
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.Lock()
	defer mu.Unlock()
	return db
}

// Shutdown disconnects the client. Calling it again returns ErrShutdown.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if client == nil {
		if closed {
			return ErrShutdown
		}
		closed = true
		return ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := drv.Disconnect(ctx, client)

	client = nil
	db = nil
	closed = true
	isReplicaSet.Store(false)

	return err
}
