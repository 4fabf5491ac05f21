// Package domain contains the core business entities of the application:
// the Task record and the partial update applied to it. It is independent
// of any specific storage backend or delivery mechanism.
package domain
