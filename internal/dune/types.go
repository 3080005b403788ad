package dune

import "encoding/json"

// Wire states reported by the query service. Anything else is treated
// uniformly as "not yet terminal".
const (
	StateCompleted = "QUERY_STATE_COMPLETED"
	StateFailed    = "QUERY_STATE_FAILED"
)

// ResultRow is one raw row of an execution result set.
type ResultRow map[string]json.RawMessage

// Execution is the handle returned for a submitted query.
type Execution struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
}

// ResultMetadata carries result-set statistics once an execution completes.
type ResultMetadata struct {
	TotalRowCount int64 `json:"total_row_count"`
}

// ExecutionStatus is the response of the status endpoint.
type ExecutionStatus struct {
	ExecutionID    string          `json:"execution_id"`
	QueryID        int64           `json:"query_id"`
	State          string          `json:"state"`
	Error          string          `json:"error,omitempty"`
	ResultMetadata *ResultMetadata `json:"result_metadata,omitempty"`
}

// ResultPage is one page of an execution's result set.
type ResultPage struct {
	ExecutionID string    `json:"execution_id"`
	State       string    `json:"state"`
	Result      ResultSet `json:"result"`
}

// ResultSet holds the rows of a result page.
type ResultSet struct {
	Rows []ResultRow `json:"rows"`
}

// submitRequest is the body of the execute endpoint.
type submitRequest struct {
	QueryParameters map[string]any `json:"query_parameters,omitempty"`
}

// apiError is the error body returned on non-2xx responses.
type apiError struct {
	Error string `json:"error"`
}
