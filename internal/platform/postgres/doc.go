// Package postgres provides the PostgreSQL implementation of store.TaskStore.
// It handles query execution, mapping between tasks and rows, translation of
// database errors into store errors, and the embedded goose migrations that
// define the tasks table.
package postgres
