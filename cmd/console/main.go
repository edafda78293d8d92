// Package main provides the interactive catalog console and the sample data loader.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookshelf/catalog-service/internal/catalog"
	"github.com/bookshelf/catalog-service/internal/config"
	"github.com/bookshelf/catalog-service/internal/console"
	"github.com/bookshelf/catalog-service/internal/database"
	"github.com/bookshelf/catalog-service/internal/observability"
	"github.com/bookshelf/catalog-service/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	seed := flag.Bool("seed", false, "Load the sample catalog instead of starting the menu")
	yes := flag.Bool("yes", false, "With -seed, replace existing data without asking")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logs go to stderr so the menu on stdout stays readable.
	logCfg := observability.DefaultLoggingConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	logger := observability.WithComponent(observability.NewLogger(logCfg), "console-cli")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	store := repository.NewStore(db)
	svc := catalog.NewService(store.Categories(), store.Books(), store, logger, nil)
	menu := console.NewMenu(svc, os.Stdin, os.Stdout, logger)

	if *seed {
		return menu.Seed(ctx, svc, *yes)
	}
	return menu.Run(ctx)
}
