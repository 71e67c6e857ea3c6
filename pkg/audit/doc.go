// Package audit records operator-facing authentication events as JSON
// lines. Client responses deliberately hide whether a rejected token was
// unknown or expired; the audit trail is where that distinction lives.
package audit
