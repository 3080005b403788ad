package dune

import "context"

// ResultsClient retrieves pages of a completed execution's result set.
type ResultsClient interface {
	GetExecutionResults(ctx context.Context, executionID string, offset, limit int64) (*ResultPage, error)
}

// ResultSource adapts a completed execution's result set to offset-paged
// fetching. Satisfies pipeline.RowSource.
type ResultSource struct {
	client      ResultsClient
	executionID string
}

// NewResultSource creates a row source over an execution's results.
func NewResultSource(client ResultsClient, executionID string) *ResultSource {
	return &ResultSource{client: client, executionID: executionID}
}

// FetchPage retrieves one page of result rows by offset.
func (s *ResultSource) FetchPage(ctx context.Context, offset, limit int64) ([]ResultRow, error) {
	page, err := s.client.GetExecutionResults(ctx, s.executionID, offset, limit)
	if err != nil {
		return nil, err
	}
	return page.Result.Rows, nil
}
