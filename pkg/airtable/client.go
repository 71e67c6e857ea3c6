package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/subdeck/subdeck/pkg/observability"
)

const (
	// DefaultBaseURL is the production Airtable REST endpoint
	DefaultBaseURL = "https://api.airtable.com/v0"

	// defaultTimeout bounds a single upstream request
	defaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of an upstream response is read
	maxResponseBytes = 10 << 20 // 10MB
)

// genericRejectionMessage is used when Airtable signals an error without a message
const genericRejectionMessage = "Airtable request failed"

// Client performs tenant-scoped calls against the Airtable API. It holds no
// per-tenant state; credentials arrive with every call.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewClient creates a gateway client. baseURL may be empty for the
// production endpoint; timeout may be zero for the default. metrics may be
// nil.
func NewClient(baseURL string, timeout time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// ListRecords fetches every record in the given table, following the
// upstream pagination cursor until exhausted. Records are returned in the
// order the upstream supplied them. The pagination loop terminates on any
// page without an offset and on any malformed page.
func (c *Client) ListRecords(ctx context.Context, creds Credentials, tableID string) ([]Record, error) {
	if !creds.Usable() {
		return nil, ErrConfigIncomplete
	}

	var all []Record
	offset := ""
	for {
		page, err := c.fetchPage(ctx, creds, tableID, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

// CreateRecord writes one record with the caller-supplied fields, unaltered
func (c *Client) CreateRecord(ctx context.Context, creds Credentials, tableID string, fields map[string]interface{}) (*Record, error) {
	if !creds.Usable() {
		return nil, ErrConfigIncomplete
	}

	payload, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("encoding record fields: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(creds, tableID), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(req, tableID)
	if err != nil {
		return nil, err
	}

	var out createResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &UpstreamError{StatusCode: status, Err: fmt.Errorf("decoding create response: %w", err)}
	}
	if reject := rejection(status, out.Error); reject != nil {
		return nil, reject
	}
	return &out.Record, nil
}

// fetchPage performs one list call, optionally carrying a pagination cursor
func (c *Client) fetchPage(ctx context.Context, creds Credentials, tableID, offset string) (*listResponse, error) {
	u := c.tableURL(creds, tableID)
	if offset != "" {
		u += "?offset=" + url.QueryEscape(offset)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(req, tableID)
	if err != nil {
		return nil, err
	}

	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		// An unparseable 2xx page ends pagination rather than looping or
		// failing the whole aggregation.
		if status >= 200 && status < 300 {
			c.logger.WithField("table", tableID).Warn("malformed airtable page, ending pagination")
			return &listResponse{}, nil
		}
		return nil, &UpstreamError{Rejected: true, StatusCode: status, Message: genericRejectionMessage}
	}
	if reject := rejection(status, page.Error); reject != nil {
		return nil, reject
	}
	return &page, nil
}

// do executes the request and reads the response, translating transport
// failures into unreachable errors.
func (c *Client) do(req *http.Request, tableID string) ([]byte, int, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("table", tableID).Error("airtable request failed")
		if c.metrics != nil {
			c.metrics.ObserveUpstream(tableID, 0, time.Since(start))
		}
		return nil, 0, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if c.metrics != nil {
		c.metrics.ObserveUpstream(tableID, resp.StatusCode, time.Since(start))
	}
	if err != nil {
		return nil, resp.StatusCode, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	return body, resp.StatusCode, nil
}

func (c *Client) tableURL(creds Credentials, tableID string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(creds.BaseID), url.PathEscape(tableID))
}

// rejection translates an error indicator in an upstream response into an
// UpstreamError, falling back to a generic message when Airtable supplied
// none.
func rejection(status int, apiErr *apiError) *UpstreamError {
	if apiErr == nil && status >= 200 && status < 300 {
		return nil
	}
	msg := apiErr.message()
	if msg == "" {
		msg = genericRejectionMessage
	}
	return &UpstreamError{Rejected: true, StatusCode: status, Message: msg}
}
