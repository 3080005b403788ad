package dune

import "errors"

// Query service errors.
var (
	// ErrSubmissionRejected is returned when the service rejects an
	// execution request (bad credentials, unknown query, rate limit).
	// Submissions are not retried automatically.
	ErrSubmissionRejected = errors.New("submission rejected")

	// ErrQueryFailed is returned when the service reports a failed
	// execution. The service's reason is carried in the wrapping message.
	ErrQueryFailed = errors.New("query execution failed")

	// ErrPollTimeout is returned when the poll attempt budget is
	// exhausted before the execution reaches a terminal state.
	ErrPollTimeout = errors.New("poll timeout")
)
