package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/memory"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/platform/tablestorage"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil unless the postgres backend is selected.
	db        *sql.DB
	taskStore store.TaskStore

	registry *prometheus.Registry
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := app.setupTaskStore(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("Application initialized successfully", "store_backend", cfg.Store.Backend)
	return app, nil
}

// setupTaskStore builds the store for the configured backend.
func (app *application) setupTaskStore(ctx context.Context) error {
	storeLogger := app.logger.With("store_backend", app.config.Store.Backend)

	switch app.config.Store.Backend {
	case config.BackendPostgres:
		db, err := setupAppDatabase(ctx, app.config.Database, app.logger)
		if err != nil {
			return err
		}
		app.db = db

		if app.config.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db, postgres.MigrateUp, app.logger); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
		}
		app.taskStore = postgres.NewPostgresTaskStore(db, storeLogger)

	case config.BackendAzTables:
		client, err := tablestorage.NewClient(
			app.config.TableStorage.ConnectionString,
			app.config.TableStorage.TableName,
		)
		if err != nil {
			return err
		}
		ts := tablestorage.NewTaskStore(client, storeLogger)
		if err := ts.EnsureTable(ctx); err != nil {
			return err
		}
		app.taskStore = ts

	case config.BackendMemory:
		app.taskStore = memory.NewTaskStore(storeLogger)

	default:
		return fmt.Errorf("unsupported store backend %q", app.config.Store.Backend)
	}

	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
