// Package database provides PostgreSQL connectivity and schema management for the catalog service.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/bookshelf/catalog-service/internal/config"
)

// HealthCheckTimeout bounds the ping issued by DB.Health.
const HealthCheckTimeout = 5 * time.Second

// Values of HealthStatus.Status.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the database part of the /health and /readyz responses.
type HealthStatus struct {
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
	TotalConns        int32  `json:"total_conns"`
	AcquiredConns     int32  `json:"acquired_conns"`
	IdleConns         int32  `json:"idle_conns"`
	ConstructingConns int32  `json:"constructing_conns"`
	MaxConns          int32  `json:"max_conns"`
}

// DB wraps the pgx pool shared by the catalog repositories.
type DB struct {
	pool   *pgxpool.Pool
	config *config.DatabaseConfig
	logger zerolog.Logger
}

// DBTX is an interface that *pgxpool.Pool, pgx.Tx and *DB all satisfy.
// Repositories accept it so the same code runs on the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Compile-time check that *DB implements DBTX.
var _ DBTX = (*DB)(nil)

// New opens a pool against the catalog database and pings it once so that
// misconfiguration fails at startup rather than on the first request.
func New(ctx context.Context, cfg *config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger = logger.With().Str("database", cfg.Name).Logger()
	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Int32("max_conns", pc.MaxConns).
		Msg("connected to catalog database")

	return &DB{pool: pool, config: cfg, logger: logger}, nil
}

// poolConfig translates the catalog database settings into pgxpool settings.
func poolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.HealthCheckPeriod = cfg.HealthCheckPeriod
	pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	pc.ConnConfig.RuntimeParams["application_name"] = "catalog-service"
	return pc, nil
}

// Close releases every pooled connection. It is safe on a zero DB.
func (db *DB) Close() {
	if db.pool == nil {
		return
	}
	db.pool.Close()
	db.logger.Info().Msg("catalog database pool closed")
}

// Ping checks that a pooled connection can reach the server.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Health pings the database within HealthCheckTimeout and attaches the
// current pool statistics.
func (db *DB) Health(ctx context.Context) HealthStatus {
	pingCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	health := healthFromStat(db.pool.Stat())
	health.Status = StatusHealthy
	if err := db.Ping(pingCtx); err != nil {
		health.Status = StatusUnhealthy
		health.Error = err.Error()
		db.logger.Warn().Err(err).Msg("catalog database health check failed")
	}
	return health
}

func healthFromStat(stat *pgxpool.Stat) HealthStatus {
	return HealthStatus{
		TotalConns:        stat.TotalConns(),
		AcquiredConns:     stat.AcquiredConns(),
		IdleConns:         stat.IdleConns(),
		ConstructingConns: stat.ConstructingConns(),
		MaxConns:          stat.MaxConns(),
	}
}

// Begin starts a transaction on a pooled connection.
// Repositories detect this method to run multi-statement operations atomically.
func (db *DB) Begin(ctx context.Context) (pgx.Tx, error) {
	return db.pool.Begin(ctx)
}

// Exec executes a query without returning any rows.
func (db *DB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return db.pool.Exec(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.pool.QueryRow(ctx, sql, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.pool.Query(ctx, sql, args...)
}
