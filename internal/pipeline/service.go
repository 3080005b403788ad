package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/dune"
	"solana-trader-stats/internal/stats"
	"solana-trader-stats/internal/storage"
)

// QueryClient submits executions and reads their results.
type QueryClient interface {
	SubmitExecution(ctx context.Context, queryID int64, params map[string]any) (*dune.Execution, error)
	GetExecutionResults(ctx context.Context, executionID string, offset, limit int64) (*dune.ResultPage, error)
}

// ExecutionPoller drives a submitted execution to a terminal state.
type ExecutionPoller interface {
	AwaitCompletion(ctx context.Context, execution *dune.Execution) (*domain.QueryExecution, error)
}

// ServiceOptions configures Service.
type ServiceOptions struct {
	Client      QueryClient
	Poller      ExecutionPoller
	Stats       storage.TraderStatStore
	Checkpoints storage.CheckpointStore

	// Queries maps protocol identifiers to their saved query IDs.
	Queries map[string]int64

	PageSize  int64
	BatchSize int
	Logger    *log.Logger
}

// Service wires the full pipeline: submit a protocol's volume query,
// await completion, then drain the result set into the store in
// checkpointed batches. Reports are computed from the store afterwards.
type Service struct {
	client      QueryClient
	poller      ExecutionPoller
	stats       storage.TraderStatStore
	checkpoints storage.CheckpointStore
	aggregator  *stats.Aggregator
	queries     map[string]int64
	pageSize    int64
	importer    *Importer
	logger      *log.Logger
}

// NewService creates the pipeline service.
func NewService(opts ServiceOptions) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Service{
		client:      opts.Client,
		poller:      opts.Poller,
		stats:       opts.Stats,
		checkpoints: opts.Checkpoints,
		aggregator:  stats.NewAggregator(opts.Stats, 0),
		queries:     opts.Queries,
		pageSize:    opts.PageSize,
		importer: NewImporter(ImporterOptions{
			Stats:       opts.Stats,
			Checkpoints: opts.Checkpoints,
			BatchSize:   opts.BatchSize,
			Logger:      opts.Logger,
		}),
		logger: opts.Logger,
	}
}

// FetchAndImport runs one full import for a protocol: submit, poll,
// fetch, import. Errors are tagged with the stage they occurred in.
func (s *Service) FetchAndImport(ctx context.Context, protocol, date string, resume bool) (*domain.ImportSummary, error) {
	queryID, ok := s.queries[protocol]
	if !ok {
		return nil, fmt.Errorf("no query configured for protocol %q: %w", protocol, storage.ErrInvalidInput)
	}

	var params map[string]any
	if date != "" {
		params = map[string]any{"date": date}
	}

	execution, err := s.client.SubmitExecution(ctx, queryID, params)
	if err != nil {
		return nil, &StageError{Stage: StageSubmit, Protocol: protocol, Err: err}
	}
	s.logger.Printf("submitted query %d for %s: execution %s", queryID, protocol, execution.ExecutionID)

	tracked, err := s.poller.AwaitCompletion(ctx, execution)
	if err != nil {
		return nil, &StageError{Stage: StagePoll, Protocol: protocol, Err: err}
	}
	s.logger.Printf("execution %s completed with %d rows", tracked.ExecutionID, tracked.RowCount)

	source := dune.NewResultSource(s.client, tracked.ExecutionID)
	fetcher := NewFetcher(source, s.pageSize)

	summary, err := s.importer.ImportAll(ctx, protocol, date, fetcher, resume)
	if err != nil {
		stage := StageImport
		if errors.Is(err, ErrSourceFetch) {
			stage = StageFetch
		}
		return nil, &StageError{Stage: stage, Protocol: protocol, Err: err}
	}

	return summary, nil
}

// GetTotalVolume computes protocol-wide volume totals from the store.
func (s *Service) GetTotalVolume(ctx context.Context, protocol string) (*domain.VolumeTotals, error) {
	return s.aggregator.ComputeTotals(ctx, protocol)
}

// GetPercentiles computes the volume-distribution report. An empty
// threshold list selects stats.DefaultThresholds.
func (s *Service) GetPercentiles(ctx context.Context, protocol string, thresholds []int) ([]*domain.PercentileBucket, error) {
	return s.aggregator.ComputePercentiles(ctx, protocol, thresholds)
}
