// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrInvalidID is returned when a task identifier is malformed.
	// Stores wrap it in a StoreError; it is not a client error.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidFormat is returned when a request payload cannot be decoded
	// into a TaskPatch.
	ErrInvalidFormat = errors.New("invalid format")
)
