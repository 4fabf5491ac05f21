package api

import (
	"net/http"
	"testing"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryRouter(t *testing.T) http.Handler {
	t.Helper()

	log, _ := logger.NewTestLogger()
	return newTestRouter(NewTaskHandler(memory.NewTaskStore(log), log), log)
}

func TestTaskLifecycle(t *testing.T) {
	router := newMemoryRouter(t)

	// Create
	w := doRequest(t, router, http.MethodPost, "/todos", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[domain.Task](t, w)
	require.NotEmpty(t, created.ID)
	require.NotNil(t, created.Title)
	assert.Equal(t, "Buy milk", *created.Title)
	assert.False(t, created.Done)

	// Get returns the same task
	w = doRequest(t, router, http.MethodGet, "/todos/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decodeBody[domain.Task](t, w))

	// Mark done
	w = doRequest(t, router, http.MethodPut, "/todos/"+created.ID+"/done", `{"done":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	done := decodeBody[domain.Task](t, w)
	assert.True(t, done.Done)
	assert.Equal(t, "Buy milk", *done.Title)

	// Delete
	w = doRequest(t, router, http.MethodDelete, "/todos/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Task deleted successfully"}`, w.Body.String())

	// Gone
	w = doRequest(t, router, http.MethodGet, "/todos/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, w.Body.String())
}

func TestTaskLifecycle_DeleteTwice(t *testing.T) {
	router := newMemoryRouter(t)

	w := doRequest(t, router, http.MethodPost, "/todos", `{"title":"once"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody[domain.Task](t, w).ID

	w = doRequest(t, router, http.MethodDelete, "/todos/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/todos/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, w.Body.String())
}

func TestTaskLifecycle_CreateAssignsUniqueIDs(t *testing.T) {
	router := newMemoryRouter(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		w := doRequest(t, router, http.MethodPost, "/todos", `{"title":"same"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		id := decodeBody[domain.Task](t, w).ID
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	w := doRequest(t, router, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]domain.Task](t, w), 5)
}

func TestTaskLifecycle_ListEmpty(t *testing.T) {
	router := newMemoryRouter(t)

	w := doRequest(t, router, http.MethodGet, "/todos", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestTaskLifecycle_PartialUpdate(t *testing.T) {
	router := newMemoryRouter(t)

	w := doRequest(t, router, http.MethodPost, "/todos",
		`{"title":"Buy milk","description":"2 litres","dueDate":"2026-10-20","priority":"low"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody[domain.Task](t, w).ID

	w = doRequest(t, router, http.MethodPut, "/todos/"+id, `{"priority":"high"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[domain.Task](t, w)

	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "high", *updated.Priority)
	assert.Equal(t, "Buy milk", *updated.Title)
	assert.Equal(t, "2 litres", *updated.Description)
	assert.Equal(t, "2026-10-20", *updated.DueDate)
	assert.False(t, updated.Done)

	// Set done without the flag leaves the task unchanged.
	w = doRequest(t, router, http.MethodPut, "/todos/"+id+"/done", `{"title":"ignored"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, updated, decodeBody[domain.Task](t, w))
}

func TestTaskLifecycle_NullClearsField(t *testing.T) {
	router := newMemoryRouter(t)

	w := doRequest(t, router, http.MethodPost, "/todos", `{"title":"Buy milk","priority":"high"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody[domain.Task](t, w).ID

	w = doRequest(t, router, http.MethodPut, "/todos/"+id, `{"priority":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+id+`","title":"Buy milk","done":false}`, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/todos/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+id+`","title":"Buy milk","done":false}`, w.Body.String())

	// done cannot be cleared; null leaves it as it was.
	w = doRequest(t, router, http.MethodPut, "/todos/"+id, `{"done":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeBody[domain.Task](t, w).Done)
}

func TestTaskLifecycle_MalformedIDIsServerError(t *testing.T) {
	router := newMemoryRouter(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/todos/123", ""},
		{http.MethodPut, "/todos/123", `{"title":"x"}`},
		{http.MethodPut, "/todos/123/done", `{"done":true}`},
		{http.MethodDelete, "/todos/123", ""},
	} {
		w := doRequest(t, router, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, "%s %s", tc.method, tc.path)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
	}
}
