package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/printdesk/printdesk/internal/accounts"
	"github.com/printdesk/printdesk/internal/dataquality"
	"github.com/printdesk/printdesk/internal/platform/cache"
	"github.com/printdesk/printdesk/internal/platform/db"
)

// Backends holds the shared connections used by the server and the worker.
type Backends struct {
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Reporter dataquality.Reporter

	closers []func() error
}

// OpenBackends connects to Postgres and Redis and builds the data-quality
// reporter chain. Redis is optional: on ping failure the ledger runs without
// a snapshot cache.
func OpenBackends(ctx context.Context, cfg *Config, logger *slog.Logger, applicationName string) (*Backends, error) {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{
		MaxConns:        cfg.PGMaxConns,
		ApplicationName: applicationName,
		ReadOnly:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	b := &Backends{Pool: pool}
	b.closers = append(b.closers, func() error { pool.Close(); return nil })

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, ledger snapshots will not be cached", slog.Any("error", err))
	} else {
		b.Redis = redisClient
		b.closers = append(b.closers, redisClient.Close)
	}

	b.Reporter = NewReporter(cfg, logger, &b.closers)
	return b, nil
}

// NewReporter returns the log reporter, fanned out to Kafka when brokers are
// configured. Closers for the Kafka writer are appended to closers.
func NewReporter(cfg *Config, logger *slog.Logger, closers *[]func() error) dataquality.Reporter {
	reporters := dataquality.Multi{dataquality.LogReporter{Logger: logger}}
	if cfg.KafkaEnabled() {
		kafkaReporter := dataquality.NewKafkaReporter(cfg.KafkaBrokers, cfg.KafkaDataQualityTopic)
		reporters = append(reporters, kafkaReporter)
		if closers != nil {
			*closers = append(*closers, kafkaReporter.Close)
		}
		logger.Info("publishing ledger data-quality reports to kafka",
			slog.String("topic", cfg.KafkaDataQualityTopic),
			slog.Int("brokers", len(cfg.KafkaBrokers)))
	}
	return reporters
}

// AccountsService wires the statement service on top of the backends.
func (b *Backends) AccountsService(cfg *Config, logger *slog.Logger) *accounts.Service {
	var snapshots *accounts.SnapshotCache
	if b.Redis != nil {
		snapshots = accounts.NewSnapshotCache(b.Redis, cfg.LedgerCacheTTL)
	}
	return accounts.NewService(accounts.NewRepository(b.Pool), snapshots, b.Reporter, logger)
}

// Close releases connections in reverse order of opening.
func (b *Backends) Close(logger *slog.Logger) {
	if b == nil {
		return
	}
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Warn("close backend", slog.Any("error", err))
		}
	}
}
