// Package db owns the Postgres connection pool and the schema migrations
// applied at startup.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/barysai/barysai/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a connection pool from cfg.URL and verifies it with a ping.
func New(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	// Pool tuning:
	//
	// MaxConns / MinConns come from config (defaults 25 / 5). A request
	// holds a connection only for the duration of its queries, except the
	// assistant route, which releases it while the provider call is in
	// flight. MinConns keeps a few warm connections so the first requests
	// after an idle period skip the TCP + auth handshake.
	//
	// MaxConnLifetime (1h) recycles connections so DNS changes and
	// managed-Postgres failovers are picked up.
	//
	// MaxConnIdleTime (20m) gives slots back to Postgres when traffic is
	// low.
	//
	// HealthCheckPeriod (1m) pings idle connections so a dead one is
	// dropped before a request picks it up.
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 && cfg.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 20 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// NewWithConfig connects lazily; Ping surfaces bad credentials or an
	// unreachable host at startup instead of on the first request.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	logger.Info("DB connection established",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.Int32("max_conns", poolConfig.MaxConns),
	)
	return &DB{
		pool:   pool,
		logger: logger,
	}, nil
}

func (db *DB) Close() {
	db.logger.Info("closing database connection pool")
	db.pool.Close()
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping backs the /health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
