// Package middleware implements the auth gate: the request guard that
// resolves session tokens into tenant context before any upstream call is
// attempted.
package middleware
