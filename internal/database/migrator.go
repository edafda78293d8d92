package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// MigrationsTable is the table golang-migrate uses to track the applied schema version.
const MigrationsTable = "schema_migrations"

// Migrator applies the SQL files under the migrations directory.
type Migrator struct {
	migrate *migrate.Migrate
	sqlDB   *sql.DB // database/sql view of the pgx pool, closed by Close
	logger  zerolog.Logger
}

// MigrationStatus describes the schema version currently recorded in the database.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	// Pristine is true when no migration has ever been applied.
	Pristine bool
}

// NewMigrator creates a migrator over an open pool and a migrations directory.
func NewMigrator(db *DB, migrationsPath string, logger zerolog.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if db.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if migrationsPath == "" {
		return nil, fmt.Errorf("migrations path is required")
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("migrations path validation failed: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.pool)

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(absPath), "postgres", driver)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{
		migrate: m,
		sqlDB:   sqlDB,
		logger:  logger.With().Str("migrations_path", absPath).Logger(),
	}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	return m.apply("up", m.migrate.Up)
}

// Down reverts every applied migration, dropping the catalog tables.
func (m *Migrator) Down() error {
	m.logger.Warn().Msg("reverting all catalog migrations")
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations, or reverts -n when n is negative. Stepping past
// either end of the history stops quietly.
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("steps %+d", n), func() error {
		err := m.migrate.Steps(n)
		// golang-migrate reports a missing file when stepping past the last version.
		if errors.Is(err, os.ErrNotExist) {
			return migrate.ErrNoChange
		}
		return err
	})
}

func (m *Migrator) apply(op string, fn func() error) error {
	logger := m.logger.With().Str("op", op).Logger()
	logger.Info().Msg("applying migrations")

	switch err := fn(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info().Msg("schema already at target version")
		return nil
	case err != nil:
		return fmt.Errorf("schema %s: %w", op, err)
	}

	logger.Info().Msg("migrations applied")
	return nil
}

// Status returns the applied schema version.
func (m *Migrator) Status() (MigrationStatus, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return MigrationStatus{Pristine: true}, nil
		}
		return MigrationStatus{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}

// Force records version as applied and clears the dirty flag without running
// any SQL. It is the way out after a migration failed halfway.
func (m *Migrator) Force(version int) error {
	m.logger.Warn().Int("version", version).Msg("forcing schema version")
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles held by the migrator.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if m.sqlDB != nil {
		if err := m.sqlDB.Close(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	if err := errors.Join(sourceErr, dbErr); err != nil {
		return fmt.Errorf("close migrator: %w", err)
	}
	return nil
}
