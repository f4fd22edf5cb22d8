package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the schema up to the latest embedded version.
//
// It runs once, from main, before the HTTP listener opens:
//   - No request handler ever issues DDL, so a request never waits on
//     a schema lock or races another request creating the same table.
//   - A failed migration stops the process with an error instead of
//     serving a half-built schema.
//   - golang-migrate takes an advisory lock, so several replicas booting
//     together apply each version exactly once.
//
// Every statement is create-if-absent or add-if-absent, so it is also
// safe against a database that predates the schema_migrations table.
func (db *DB) Migrate() error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	// The sql.DB borrows connections from the pool; closing it leaves the
	// pool open. The migrate driver never closes a db handed to
	// WithInstance, so it is ours to close.
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()

	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			db.logger.Warn("closing migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		db.logger.Info("database schema up to date")
	case err != nil:
		return fmt.Errorf("run migrations: %w", err)
	default:
		version, _, _ := m.Version()
		db.logger.Info("database migrations applied", zap.Uint("version", version))
	}
	return nil
}
