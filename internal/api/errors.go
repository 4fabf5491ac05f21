package api

import (
	"net/http"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/store"
)

// Client-facing error messages.
const (
	MsgTaskNotFound        = "Task not found"
	MsgInternalServerError = "Internal Server Error"
	MsgTaskDeleted         = "Task deleted successfully"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
// Only "not found" is distinguished; every other failure, including
// malformed identifiers and undecodable bodies, is a 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case store.IsNotFoundError(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the client-facing message for err. The
// underlying error text is never exposed.
func GetSafeErrorMessage(err error) string {
	switch {
	case store.IsNotFoundError(err):
		return MsgTaskNotFound
	default:
		return MsgInternalServerError
	}
}

// HandleAPIError writes the JSON error response for err and logs the cause.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
