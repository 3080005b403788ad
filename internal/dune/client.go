package dune

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.dune.com/api/v1"
	DefaultTimeout    = 30 * time.Second
	DefaultRetryCount = 3
	DefaultRetryWait  = 1 * time.Second
)

// Client talks to the asynchronous query service over REST.
// It owns submission, status and paginated result reads; polling cadence
// is the Poller's concern.
type Client struct {
	http    *resty.Client
	baseURL string
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRetryCount sets the transport-level retry count for transient
// failures. Rejected submissions are never retried.
func WithRetryCount(n int) ClientOption {
	return func(c *Client) {
		c.http.SetRetryCount(n)
	}
}

// NewClient creates a new query service client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	http := resty.New()
	http.SetTimeout(DefaultTimeout)
	http.SetRetryCount(DefaultRetryCount)
	http.SetRetryWaitTime(DefaultRetryWait)
	http.SetHeader("X-Dune-API-Key", apiKey)

	c := &Client{
		http:    http,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitExecution submits an execution request for a saved query and
// returns the execution handle. Resubmission always creates a new handle;
// idempotency is the caller's responsibility.
func (c *Client) SubmitExecution(ctx context.Context, queryID int64, params map[string]any) (*Execution, error) {
	var exec Execution

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(submitRequest{QueryParameters: params}).
		SetResult(&exec).
		Post(fmt.Sprintf("%s/query/%d/execute", c.baseURL, queryID))
	if err != nil {
		return nil, fmt.Errorf("submit query %d: %w", queryID, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("submit query %d: %s: %w", queryID, errorBody(resp), ErrSubmissionRejected)
	}
	if exec.ExecutionID == "" {
		return nil, fmt.Errorf("submit query %d: empty execution id: %w", queryID, ErrSubmissionRejected)
	}

	return &exec, nil
}

// GetExecutionStatus retrieves the current state of an execution.
func (c *Client) GetExecutionStatus(ctx context.Context, executionID string) (*ExecutionStatus, error) {
	var status ExecutionStatus

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		Get(fmt.Sprintf("%s/execution/%s/status", c.baseURL, executionID))
	if err != nil {
		return nil, fmt.Errorf("get status for execution %s: %w", executionID, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("get status for execution %s: %s", executionID, errorBody(resp))
	}

	return &status, nil
}

// GetExecutionResults retrieves one page of result rows by offset.
// Re-requesting the same offset has no side effects on the service.
func (c *Client) GetExecutionResults(ctx context.Context, executionID string, offset, limit int64) (*ResultPage, error) {
	var page ResultPage

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("offset", fmt.Sprintf("%d", offset)).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&page).
		Get(fmt.Sprintf("%s/execution/%s/results", c.baseURL, executionID))
	if err != nil {
		return nil, fmt.Errorf("get results for execution %s at offset %d: %w", executionID, offset, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("get results for execution %s at offset %d: %s", executionID, offset, errorBody(resp))
	}

	return &page, nil
}

// errorBody extracts the service's error message from a non-2xx response.
func errorBody(resp *resty.Response) string {
	var apiErr apiError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode(), apiErr.Error)
	}
	return fmt.Sprintf("status %d", resp.StatusCode())
}
