// Package auth owns session lifecycle for the gateway: opaque token
// generation, the in-memory session store, and the scheduled expiry
// sweeper. Sessions bind an issued token to a tenant for a bounded
// lifetime and are never persisted.
package auth
