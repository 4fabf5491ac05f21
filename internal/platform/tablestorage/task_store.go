package tablestorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// maxUpdateAttempts bounds the read-modify-write loop in UpdateByID.
const maxUpdateAttempts = 3

// TableClient is the subset of *aztables.Client used by TaskStore.
type TableClient interface {
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

var _ TableClient = (*aztables.Client)(nil)

// Compile-time check to ensure TaskStore implements store.TaskStore.
var _ store.TaskStore = (*TaskStore)(nil)

// TaskStore implements store.TaskStore on a single Azure table.
type TaskStore struct {
	client TableClient
	newID  func() (uuid.UUID, error)
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore backed by client.
// If logger is nil, a default logger will be used.
func NewTaskStore(client TableClient, logger *slog.Logger) *TaskStore {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		client: client,
		newID:  uuid.NewV7,
		logger: logger.With(slog.String("component", "aztables_task_store")),
	}
}

// NewClient creates a table client from a storage connection string.
// Transient failures are retried by the azcore pipeline.
func NewClient(connStr, tableName string) (*aztables.Client, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create table service client: %w", err)
	}
	return svc.NewClient(tableName), nil
}

// EnsureTable creates the table if it does not exist yet.
func (s *TaskStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			s.logger.Debug("table already exists")
			return nil
		}
		return fmt.Errorf("failed to create table: %w", err)
	}

	s.logger.Info("table created")
	return nil
}

// FindAll returns every task in the partition in creation order.
func (s *TaskStore) FindAll(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter := "PartitionKey eq '" + PartitionKey + "'"
	pager := s.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	tasks := []*domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			log.Error("failed to list task entities", slog.String("error", err.Error()))
			return nil, store.NewStoreError("task", "list", "list entities failed", err)
		}
		for _, raw := range resp.Entities {
			task, err := decodeTask(raw)
			if err != nil {
				return nil, store.NewStoreError("task", "list", "decode entity failed", err)
			}
			tasks = append(tasks, task)
		}
	}

	log.Debug("tasks retrieved", slog.Int("count", len(tasks)))
	return tasks, nil
}

// FindByID returns the task with the given identifier.
func (s *TaskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	id, err := canonicalID("get", id)
	if err != nil {
		return nil, err
	}

	task, _, err := s.get(ctx, id)
	if err != nil {
		return nil, s.entityError(log, "get", id, err)
	}
	return task, nil
}

// Create inserts a new task under a fresh row key.
func (s *TaskStore) Create(ctx context.Context, patch domain.TaskPatch) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	id, err := s.newID()
	if err != nil {
		return nil, store.NewStoreError("task", "create", "id generation failed", err)
	}

	task := domain.NewTask(id.String(), patch)
	payload, err := json.Marshal(newTaskEntity(task))
	if err != nil {
		return nil, store.NewStoreError("task", "create", "encode entity failed", err)
	}

	if _, err := s.client.AddEntity(ctx, payload, nil); err != nil {
		log.Error("failed to add task entity",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "create", "add entity failed", err)
	}

	log.Info("task created successfully", slog.String("task_id", task.ID))
	return task, nil
}

// UpdateByID applies patch to the stored task and writes the result back.
// The write replaces the whole entity so that fields cleared by the patch
// are removed, and is conditional on the ETag that was read. A concurrent
// change is retried against the fresh entity.
func (s *TaskStore) UpdateByID(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	id, err := canonicalID("update", id)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		task, etag, err := s.get(ctx, id)
		if err != nil {
			return nil, s.entityError(log, "update", id, err)
		}
		if patch.IsEmpty() {
			return task, nil
		}

		task.Apply(patch)
		payload, err := json.Marshal(newTaskEntity(task))
		if err != nil {
			return nil, store.NewStoreError("task", "update", "encode entity failed", err)
		}

		_, err = s.client.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
			IfMatch:    &etag,
			UpdateMode: aztables.UpdateModeReplace,
		})
		if err == nil {
			log.Debug("task updated successfully", slog.String("task_id", id))
			return task, nil
		}
		if !isConditionFailed(err) || attempt == maxUpdateAttempts {
			return nil, s.entityError(log, "update", id, err)
		}
		log.Debug("task changed concurrently, retrying update",
			slog.String("task_id", id),
			slog.Int("attempt", attempt))
	}
}

// DeleteByID removes the task and returns it. The delete is conditional on
// the ETag that was read, so a concurrent change makes it fail rather than
// return a stale record.
func (s *TaskStore) DeleteByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	id, err := canonicalID("delete", id)
	if err != nil {
		return nil, err
	}

	task, etag, err := s.get(ctx, id)
	if err != nil {
		return nil, s.entityError(log, "delete", id, err)
	}

	_, err = s.client.DeleteEntity(ctx, PartitionKey, id, &aztables.DeleteEntityOptions{IfMatch: &etag})
	if err != nil {
		return nil, s.entityError(log, "delete", id, err)
	}

	log.Info("task deleted successfully", slog.String("task_id", id))
	return task, nil
}

func (s *TaskStore) get(ctx context.Context, id string) (*domain.Task, azcore.ETag, error) {
	resp, err := s.client.GetEntity(ctx, PartitionKey, id, nil)
	if err != nil {
		return nil, "", err
	}
	task, err := decodeTask(resp.Value)
	if err != nil {
		return nil, "", err
	}
	return task, resp.ETag, nil
}

// entityError converts a service failure into a store error. A 404 from the
// service means the task does not exist.
func (s *TaskStore) entityError(log *slog.Logger, op, id string, err error) error {
	if isNotFound(err) {
		log.Debug("task not found", slog.String("task_id", id), slog.String("operation", op))
		return fmt.Errorf("%w: %s", store.ErrTaskNotFound, id)
	}

	log.Error("task entity operation failed",
		slog.String("task_id", id),
		slog.String("operation", op),
		slog.String("error", err.Error()))
	return store.NewStoreError("task", op, "entity operation failed", err)
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

func isConditionFailed(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusPreconditionFailed
}

// canonicalID rejects row keys that could not have been issued by Create and
// returns the spelling Create stores them under.
func canonicalID(op, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", store.NewStoreError("task", op, "invalid task id",
			fmt.Errorf("%w: %v", domain.ErrInvalidID, err))
	}
	return parsed.String(), nil
}
