// Package main applies, rolls back and inspects the catalog schema migrations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookshelf/catalog-service/internal/config"
	"github.com/bookshelf/catalog-service/internal/database"
	"github.com/bookshelf/catalog-service/internal/observability"
)

const connectTimeout = 30 * time.Second

var (
	errNoAction       = errors.New("no action specified: use one of -up, -down, -steps N, -version, -force V")
	errTooManyActions = errors.New("specify only one action at a time")
)

// action is the single migration command requested on the command line.
type action struct {
	name  string
	steps int
	force int
	path  string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	act, err := parseAction(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if act.path != "" {
		cfg.Database.MigrationPath = act.path
	}

	logCfg := observability.DefaultLoggingConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = "console"
	logger := observability.WithComponent(observability.NewLogger(logCfg), "migrate")

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	if err := act.apply(migrator); err != nil {
		return err
	}
	reportStatus(migrator, logger)
	return nil
}

// parseAction reads the flags and returns exactly one requested action.
func parseAction(args []string, stderr io.Writer) (action, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	up := fs.Bool("up", false, "Apply all pending migrations")
	down := fs.Bool("down", false, "Roll back every migration")
	steps := fs.Int("steps", 0, "Apply N steps (negative rolls back)")
	version := fs.Bool("version", false, "Print the applied schema version")
	force := fs.Int("force", -1, "Record version V without running it (recovers a dirty schema)")
	path := fs.String("path", "", "Migrations directory (overrides database.migration_path)")
	if err := fs.Parse(args); err != nil {
		return action{}, err
	}

	var chosen []action
	if *up {
		chosen = append(chosen, action{name: "up"})
	}
	if *down {
		chosen = append(chosen, action{name: "down"})
	}
	if *steps != 0 {
		chosen = append(chosen, action{name: "steps", steps: *steps})
	}
	if *version {
		chosen = append(chosen, action{name: "version"})
	}
	if *force >= 0 {
		chosen = append(chosen, action{name: "force", force: *force})
	}

	switch len(chosen) {
	case 0:
		fs.Usage()
		return action{}, errNoAction
	case 1:
		act := chosen[0]
		act.path = *path
		return act, nil
	default:
		return action{}, errTooManyActions
	}
}

// migrationRunner is the part of *database.Migrator the actions drive.
type migrationRunner interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
}

func (a action) apply(m migrationRunner) error {
	switch a.name {
	case "up":
		if err := m.Up(); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := m.Down(); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "steps":
		if err := m.Steps(a.steps); err != nil {
			return fmt.Errorf("migrate steps: %w", err)
		}
	case "force":
		if err := m.Force(a.force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	case "version":
	default:
		return fmt.Errorf("unknown action %q", a.name)
	}
	return nil
}

func reportStatus(migrator *database.Migrator, logger zerolog.Logger) {
	status, err := migrator.Status()
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("could not read schema version")
	case status.Pristine:
		logger.Info().Msg("no migrations applied")
	default:
		logger.Info().Uint("version", status.Version).Bool("dirty", status.Dirty).Msg("schema version")
	}
}
