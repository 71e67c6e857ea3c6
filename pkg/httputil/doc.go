// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding/decoding, and the shared middleware chain
// (request IDs, logging, panic recovery, CORS).
package httputil
