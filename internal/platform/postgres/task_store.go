package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

const taskColumns = `id, title, description, due_date, priority, done`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// FindAll implements store.TaskStore.FindAll.
// Tasks are returned in creation order.
func (s *PostgresTaskStore) FindAll(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "query failed", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("task", "list", "scan failed", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "row iteration failed", MapError(err))
	}

	log.Debug("tasks retrieved", slog.Int("count", len(tasks)))
	return tasks, nil
}

// FindByID implements store.TaskStore.FindByID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := parseID("get", id)
	if err != nil {
		return nil, err
	}

	log.Debug("retrieving task by ID", slog.String("task_id", id))

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID))
	if err != nil {
		return nil, s.rowError(log, "get", id, err)
	}

	return task, nil
}

// Create implements store.TaskStore.Create.
// The ID is generated here; done defaults to false when the patch leaves it unset.
func (s *PostgresTaskStore) Create(ctx context.Context, patch domain.TaskPatch) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, title, description, due_date, priority, done)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, FALSE))
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(
		ctx,
		query,
		uuid.New(),
		patch.Title.Value,
		patch.Description.Value,
		patch.DueDate.Value,
		patch.Priority.Value,
		patch.Done,
	))
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "create", "insert failed", MapError(err))
	}

	log.Info("task created successfully", slog.String("task_id", task.ID))
	return task, nil
}

// UpdateByID implements store.TaskStore.UpdateByID.
// Only fields present in patch are written, and a field sent as null is set
// to NULL. Each string column takes a presence flag and a value because
// COALESCE cannot tell an absent field from a cleared one. The merge happens
// in a single statement so concurrent updates to different fields never lose
// each other.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) UpdateByID(
	ctx context.Context,
	id string,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := parseID("update", id)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE tasks
		SET title = CASE WHEN $2::boolean THEN $3::text ELSE title END,
			description = CASE WHEN $4::boolean THEN $5::text ELSE description END,
			due_date = CASE WHEN $6::boolean THEN $7::text ELSE due_date END,
			priority = CASE WHEN $8::boolean THEN $9::text ELSE priority END,
			done = COALESCE($10, done),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(
		ctx,
		query,
		taskID,
		patch.Title.Present, patch.Title.Value,
		patch.Description.Present, patch.Description.Value,
		patch.DueDate.Present, patch.DueDate.Value,
		patch.Priority.Present, patch.Priority.Value,
		patch.Done,
	))
	if err != nil {
		return nil, s.rowError(log, "update", id, err)
	}

	log.Debug("task updated successfully", slog.String("task_id", id))
	return task, nil
}

// DeleteByID implements store.TaskStore.DeleteByID and returns the removed task.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) DeleteByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := parseID("delete", id)
	if err != nil {
		return nil, err
	}

	query := `DELETE FROM tasks WHERE id = $1 RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID))
	if err != nil {
		return nil, s.rowError(log, "delete", id, err)
	}

	log.Info("task deleted successfully", slog.String("task_id", id))
	return task, nil
}

// rowError converts a single-row query failure into a store error.
func (s *PostgresTaskStore) rowError(log *slog.Logger, op, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("task not found", slog.String("task_id", id), slog.String("operation", op))
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}

	log.Error("task query failed",
		slog.String("task_id", id),
		slog.String("operation", op),
		slog.String("error", err.Error()))
	return store.NewStoreError("task", op, "query failed", MapError(err))
}

// parseID rejects identifiers that are not UUIDs before they reach the database.
func parseID(op, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, store.NewStoreError("task", op, "invalid task id",
			fmt.Errorf("%w: %v", domain.ErrInvalidID, err))
	}
	return parsed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                                   domain.Task
		title, description, dueDate, priority sql.NullString
	)

	if err := row.Scan(&task.ID, &title, &description, &dueDate, &priority, &task.Done); err != nil {
		return nil, err
	}

	task.Title = nullStringPtr(title)
	task.Description = nullStringPtr(description)
	task.DueDate = nullStringPtr(dueDate)
	task.Priority = nullStringPtr(priority)
	return &task, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
