package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   0,
			LogLevel:               "debug",
			ShutdownTimeoutSeconds: 1,
		},
		Store:        config.StoreConfig{Backend: config.BackendMemory},
		TableStorage: config.TableStorageConfig{TableName: "tasks"},
	}
}

func newTestApplication(t *testing.T) *application {
	t.Helper()

	log, _ := logger.NewTestLogger()
	app, err := newApplication(context.Background(), memoryConfig(), log)
	require.NoError(t, err)
	return app
}

func TestNewApplication_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Backend = "mongodb"
	log, _ := logger.NewTestLogger()

	app, err := newApplication(context.Background(), cfg, log)

	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "unsupported store backend")
}

func TestRunMigrations_RequiresPostgres(t *testing.T) {
	log, _ := logger.NewTestLogger()

	err := runMigrations(context.Background(), memoryConfig(), "up", log)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "require the postgres backend")
}

func TestRouter_Endpoints(t *testing.T) {
	router := newTestApplication(t).setupRouter()

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	})

	t.Run("todos round trip", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"Buy milk"}`)))
		require.Equal(t, http.StatusCreated, w.Code)

		var created struct {
			ID   string `json:"id"`
			Done bool   `json:"done"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		require.NotEmpty(t, created.ID)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todos/"+created.ID, nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todos", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), created.ID)
	})

	t.Run("metrics exposes request counters", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "todo_http_requests_total")
		assert.Contains(t, body, `route="/todos/{id}"`)
		assert.Contains(t, body, "go_goroutines")
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStartHTTPServer_StopsOnContextCancel(t *testing.T) {
	app := newTestApplication(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- app.startHTTPServer(ctx, app.setupRouter())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}
