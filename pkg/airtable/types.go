package airtable

import "strings"

// Credentials identifies a tenant's Airtable base and tables. Constructed
// by the auth gate from the tenant record and passed by parameter; never
// stored on shared request state.
type Credentials struct {
	APIKey            string
	BaseID            string
	PostsTableID      string
	SubredditsTableID string
}

// Usable reports whether all four fields are populated and none is an
// unfilled template value (e.g. "YOUR_AIRTABLE_API_KEY").
func (c Credentials) Usable() bool {
	for _, field := range []string{c.APIKey, c.BaseID, c.PostsTableID, c.SubredditsTableID} {
		if field == "" || strings.HasPrefix(strings.ToUpper(field), "YOUR_") {
			return false
		}
	}
	return true
}

// Record is a single Airtable record. Fields carries whatever column set
// the upstream returns; the gateway imposes no schema on it.
type Record struct {
	ID          string                 `json:"id,omitempty"`
	CreatedTime string                 `json:"createdTime,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
}

// listResponse is one page of an Airtable list call. A non-empty Offset
// means more pages follow.
type listResponse struct {
	Records []Record  `json:"records"`
	Offset  string    `json:"offset"`
	Error   *apiError `json:"error"`
}

// createResponse is the body of a single-record create call
type createResponse struct {
	Record
	Error *apiError `json:"error"`
}
