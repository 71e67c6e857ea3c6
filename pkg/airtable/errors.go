package airtable

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrConfigIncomplete is returned before any upstream call when a tenant's
// Airtable credentials are missing or placeholders. Distinct from an
// authentication failure: the session is valid, the tenant is just not set
// up for upstream access.
var ErrConfigIncomplete = errors.New("airtable configuration incomplete")

// UpstreamError describes a failed Airtable call. Rejected errors carry a
// message supplied by Airtable and map to client-visible 4xx responses;
// unreachable errors are transport-level failures and map to server faults.
// The gateway never retries either kind.
type UpstreamError struct {
	Rejected   bool
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("airtable rejected request: %s", e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("airtable unreachable: %v", e.Err)
	}
	return "airtable unreachable"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err is an upstream rejection (structured error
// returned by Airtable).
func IsRejected(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Rejected
}

// IsUnreachable reports whether err is a transport-level upstream failure.
func IsUnreachable(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && !ue.Rejected
}

// apiError is Airtable's error payload. Depending on the endpoint it is
// either an object {"type": ..., "message": ...} or a bare string code, so
// it needs a tolerant unmarshaller.
type apiError struct {
	Type    string
	Message string
}

func (e *apiError) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		e.Type = asString
		return nil
	}

	var asObject struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return err
	}
	e.Type = asObject.Type
	e.Message = asObject.Message
	return nil
}

// message returns the best human-readable text available
func (e *apiError) message() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Type
}
