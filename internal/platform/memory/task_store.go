package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// Compile-time check to ensure TaskStore implements store.TaskStore.
var _ store.TaskStore = (*TaskStore)(nil)

// TaskStore keeps tasks in a map guarded by a RWMutex. Callers always receive
// copies, so mutating a returned task never changes stored state.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order []string
	newID func() string

	logger *slog.Logger
}

// NewTaskStore creates an empty in-memory task store.
// If logger is nil, a default logger will be used.
func NewTaskStore(logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		tasks:  make(map[string]*domain.Task),
		newID:  uuid.NewString,
		logger: logger.With(slog.String("component", "memory_task_store")),
	}
}

// FindAll returns every task in insertion order.
func (s *TaskStore) FindAll(ctx context.Context) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "context done", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].Clone())
	}
	return out, nil
}

// FindByID returns the task with the given identifier.
func (s *TaskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	key, err := s.key(ctx, "get", id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[key]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// Create stores a new task with a fresh UUID.
func (s *TaskStore) Create(ctx context.Context, patch domain.TaskPatch) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewStoreError("task", "create", "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if _, exists := s.tasks[id]; exists {
		return nil, store.NewStoreError("task", "create", "duplicate id generated", nil)
	}

	task := domain.NewTask(id, patch)
	s.tasks[id] = task
	s.order = append(s.order, id)

	logger.FromContextOrDefault(ctx, s.logger).Debug("task stored", slog.String("task_id", id))
	return task.Clone(), nil
}

// UpdateByID merges patch into the stored task.
func (s *TaskStore) UpdateByID(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	key, err := s.key(ctx, "update", id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	task.Apply(patch)
	return task.Clone(), nil
}

// DeleteByID removes the task and returns its last state.
func (s *TaskStore) DeleteByID(ctx context.Context, id string) (*domain.Task, error) {
	key, err := s.key(ctx, "delete", id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	delete(s.tasks, key)
	for i, existing := range s.order {
		if existing == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return task.Clone(), nil
}

// key validates id the same way the SQL backend's uuid column does and
// returns its canonical form.
func (s *TaskStore) key(ctx context.Context, op, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", store.NewStoreError("task", op, "context done", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", store.NewStoreError("task", op, "invalid task id", domain.ErrInvalidID)
	}
	return parsed.String(), nil
}
