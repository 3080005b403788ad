package domain

// ExecutionState is the lifecycle state of a submitted analytical query.
type ExecutionState string

// Execution lifecycle states. Completed, failed and timed_out are terminal.
const (
	ExecutionStateSubmitted ExecutionState = "submitted"
	ExecutionStateRunning   ExecutionState = "running"
	ExecutionStateCompleted ExecutionState = "completed"
	ExecutionStateFailed    ExecutionState = "failed"
	ExecutionStateTimedOut  ExecutionState = "timed_out"
)

// Terminal reports whether the state admits no further transitions.
func (s ExecutionState) Terminal() bool {
	return s == ExecutionStateCompleted || s == ExecutionStateFailed || s == ExecutionStateTimedOut
}

// QueryExecution identifies one submitted analytical job against the
// external query service. Created on submission, mutated only by the
// poller, never reused across protocols or dates.
type QueryExecution struct {
	QueryID       int64          // identifier of the saved query
	ExecutionID   string         // opaque execution handle from the service
	State         ExecutionState // current lifecycle state
	SubmittedAt   int64          // submission timestamp (ms)
	LastPolledAt  int64          // last status poll timestamp (ms)
	RowCount      int64          // result row count, 0 until known
	FailureReason string         // service failure message, "" unless failed
}
