// Package memory provides an in-process implementation of store.TaskStore.
// It is used by tests and for running the API locally without a database.
// Data does not survive a restart.
package memory
