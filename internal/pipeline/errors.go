package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrSourceFetch is returned when a result page cannot be retrieved
	// from the query service.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrBatchWrite is returned when a batch cannot be persisted after
	// the retry budget is spent. The checkpoint stays at the last
	// committed batch.
	ErrBatchWrite = errors.New("batch write failed")
)

// Pipeline stages, used to tag errors with where they originated.
const (
	StageSubmit = "submit"
	StagePoll   = "poll"
	StageFetch  = "fetch"
	StageImport = "import"
)

// StageError wraps a failure with the pipeline stage and protocol it
// occurred in.
type StageError struct {
	Stage    string
	Protocol string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Protocol, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
