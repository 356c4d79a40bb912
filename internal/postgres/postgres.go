// Package postgres implements the remote workout store on PostgreSQL for deployments where several devices share
// plans and workout history.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a pgxpool.Pool and provides the store methods.
type DB struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// New migrates the database to the latest schema and connects a pool to it.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	cfg := pool.Config().ConnConfig
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to postgres",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database))
	return &DB{Pool: pool, logger: logger}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// Collector exports the pool statistics to prometheus.
func (db *DB) Collector() prometheus.Collector {
	return pgxpoolprometheus.NewCollector(db.Pool, map[string]string{"db_name": db.Pool.Config().ConnConfig.Database})
}

// RunMigrations applies all pending migrations embedded in the binary.
func RunMigrations(dsn string) (err error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		err = errors.Join(err, sourceErr, dbErr)
	}()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
