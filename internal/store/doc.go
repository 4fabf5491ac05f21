// Package store defines the persistence contract for tasks. The TaskStore
// interface abstracts the storage backend (PostgreSQL, Azure Table Storage,
// in-memory) from the HTTP layer, which only ever sees tasks and the two
// error kinds: not found and store failure.
package store
