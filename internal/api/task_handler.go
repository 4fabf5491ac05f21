package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// SetDoneRequest is the body of PUT /todos/{id}/done.
type SetDoneRequest struct {
	Done *bool `json:"done"`
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	store  store.TaskStore
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler backed by taskStore.
func NewTaskHandler(taskStore store.TaskStore, logger *slog.Logger) *TaskHandler {
	if taskStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskStore cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		store:  taskStore,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// Mount registers the task routes on r.
func (h *TaskHandler) Mount(r chi.Router) {
	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Get("/{id}", h.GetTask)
		r.Put("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
		r.Put("/{id}/done", h.SetTaskDone)
	})
}

// ListTasks handles GET /todos.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	tasks, err := h.store.FindAll(r.Context())
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("list tasks: %w", err))
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	log.Debug("listed tasks", slog.Int("count", len(tasks)))
	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// GetTask handles GET /todos/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("get task %q: %w", id, err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// CreateTask handles POST /todos.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var patch domain.TaskPatch
	if err := shared.DecodeJSON(r, &patch); err != nil {
		HandleAPIError(w, r, fmt.Errorf("create task: %w: %v", domain.ErrInvalidFormat, err))
		return
	}

	task, err := h.store.Create(r.Context(), patch)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("create task: %w", err))
		return
	}

	log.Info("task created", slog.String("task_id", task.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// UpdateTask handles PUT /todos/{id}. Only fields present in the body are
// changed; the response is the merged task.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch domain.TaskPatch
	if err := shared.DecodeJSON(r, &patch); err != nil {
		HandleAPIError(w, r, fmt.Errorf("update task %q: %w: %v", id, domain.ErrInvalidFormat, err))
		return
	}

	h.update(w, r, id, patch)
}

// SetTaskDone handles PUT /todos/{id}/done. Only the done flag is read from
// the body.
func (h *TaskHandler) SetTaskDone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SetDoneRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("set done on task %q: %w: %v", id, domain.ErrInvalidFormat, err))
		return
	}

	h.update(w, r, id, domain.DonePatch(req.Done))
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request, id string, patch domain.TaskPatch) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	task, err := h.store.UpdateByID(r.Context(), id, patch)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("update task %q: %w", id, err))
		return
	}

	log.Info("task updated", slog.String("task_id", task.ID), slog.Bool("done", task.Done))
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /todos/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	id := chi.URLParam(r, "id")

	if _, err := h.store.DeleteByID(r.Context(), id); err != nil {
		HandleAPIError(w, r, fmt.Errorf("delete task %q: %w", id, err))
		return
	}

	log.Info("task deleted", slog.String("task_id", id))
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: MsgTaskDeleted})
}
