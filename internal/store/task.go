package store

import (
	"context"

	"github.com/phrazzld/todo-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
//
// Every method either succeeds, fails with an error wrapping ErrTaskNotFound
// when no task matches the identifier, or fails with a *StoreError for any
// other problem (malformed identifier, connectivity, constraint violation).
// Implementations are safe for concurrent use.
type TaskStore interface {
	// FindAll returns every stored task. An empty store yields an empty,
	// non-nil slice.
	FindAll(ctx context.Context) ([]*domain.Task, error)

	// FindByID retrieves a task by its identifier.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// Create stores a new task built from patch. The store assigns the
	// identifier; Done defaults to false when the patch omits it.
	Create(ctx context.Context, patch domain.TaskPatch) (*domain.Task, error)

	// UpdateByID merges the fields present in patch over the stored task and
	// returns the post-merge state.
	UpdateByID(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)

	// DeleteByID removes a task and returns it as it was before deletion.
	DeleteByID(ctx context.Context, id string) (*domain.Task, error)
}
