package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
)

// runMigrations executes a goose command against the configured database.
// Only the postgres backend has a schema to migrate.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Store.Backend != config.BackendPostgres {
		return fmt.Errorf("migrations require the %s backend, configured backend is %s",
			config.BackendPostgres, cfg.Store.Backend)
	}

	db, err := setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	return postgres.Migrate(ctx, db, command, logger)
}
