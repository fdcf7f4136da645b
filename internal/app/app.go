// Package app assembles the ledger service from configuration for the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/trainerworkload/internal/config"
	"example.com/trainerworkload/internal/dedupe"
	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/logging"
	"example.com/trainerworkload/internal/persistence/memory"
	mongostore "example.com/trainerworkload/internal/persistence/mongo"
	"example.com/trainerworkload/internal/persistence/postgres"
)

const connectTimeout = 10 * time.Second

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.Config, service string) logging.Logger {
	return logging.New(logging.Options{
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Service: service,
	})
}

// Closer releases a resource opened by this package.
type Closer func()

func noop() {}

// OpenRepository connects to the configured ledger store.
func OpenRepository(ctx context.Context, cfg config.Config) (domain.Repository, Closer, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return memory.NewRepository(), noop, nil
	case config.StorePostgres:
		pool, err := OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRepository(pool), pool.Close, nil
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		closeClient := func() { _ = client.Disconnect(context.Background()) }
		if err := client.Ping(connectCtx, nil); err != nil {
			closeClient()
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		repo := mongostore.NewRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(connectCtx); err != nil {
			closeClient()
			return nil, nil, err
		}
		return repo, closeClient, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

// OpenPostgres creates a pool and verifies the connection.
func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// OpenDeduplicator returns the configured processed-message log, or nil when disabled.
func OpenDeduplicator(ctx context.Context, cfg config.Config) (domain.Deduplicator, Closer, error) {
	switch cfg.DedupeBackend {
	case config.DedupeNone, "":
		return nil, noop, nil
	case config.DedupeMemory:
		return dedupe.NewMemoryLog(cfg.DedupeTTL), noop, nil
	case config.DedupeRedis:
		rdb, err := dedupe.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return dedupe.NewRedisLog(rdb, cfg.DedupeTTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported dedupe backend %q", cfg.DedupeBackend)
	}
}

// NewService opens the store and dedupe log and builds the ledger service on top of them.
// The returned Closer releases both.
func NewService(ctx context.Context, cfg config.Config, logger logging.Logger) (*domain.Service, Closer, error) {
	repo, closeRepo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	dedup, closeDedupe, err := OpenDeduplicator(ctx, cfg)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	opts := []domain.Option{
		domain.WithLogger(logger),
		domain.WithConflictRetries(cfg.LedgerConflictRetries),
		domain.WithQueryDegrade(cfg.QueryDegradeOnFailure),
	}
	if dedup != nil {
		opts = append(opts, domain.WithDeduplicator(dedup))
	}
	logger.Info("ledger service configured",
		logging.String("store", cfg.StoreBackend),
		logging.String("dedupe", cfg.DedupeBackend),
		logging.Int("conflict_retries", cfg.LedgerConflictRetries),
		logging.Bool("query_degrade", cfg.QueryDegradeOnFailure),
	)
	return domain.NewService(repo, opts...), func() {
		closeDedupe()
		closeRepo()
	}, nil
}
