// Package context holds the typed request-scoped values shared by the
// transports and the logging handlers.
package context

type contextKey string
