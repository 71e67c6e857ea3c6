package api

import "github.com/subdeck/subdeck/pkg/airtable"

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// LoginResponse is the body of a login attempt. On failure only Success
// and Message are set; the message never reveals which field mismatched.
type LoginResponse struct {
	Success           bool   `json:"success"`
	UserID            string `json:"userId,omitempty"`
	Token             string `json:"token,omitempty"`
	HasAirtableConfig bool   `json:"hasAirtableConfig"`
	Message           string `json:"message,omitempty"`
}

// BasicResponse is the body of operations with no payload (logout)
type BasicResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RecordsResponse wraps an aggregated list of upstream records
type RecordsResponse struct {
	Records []airtable.Record `json:"records"`
}
