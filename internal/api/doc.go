// Package api handles incoming HTTP requests for the task resource. Each
// handler decodes the request, performs exactly one store operation and
// translates the outcome into a JSON response, mapping "not found" to 404 and
// every other failure to a generic 500.
package api
