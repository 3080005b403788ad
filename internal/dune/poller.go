package dune

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-trader-stats/internal/domain"
)

// Default polling configuration.
const (
	DefaultPollInterval    = 5 * time.Second
	DefaultPollMaxAttempts = 120
)

// StatusClient retrieves the current state of an execution.
type StatusClient interface {
	GetExecutionStatus(ctx context.Context, executionID string) (*ExecutionStatus, error)
}

// PollerOptions configures Poller.
type PollerOptions struct {
	Client      StatusClient
	Interval    time.Duration
	MaxAttempts int
	Logger      *log.Logger

	// Sleep and Now are injectable for tests. Defaults are a
	// context-aware timer and time.Now.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Poller drives a submitted execution to a terminal state at a fixed
// interval with a bounded attempt budget.
type Poller struct {
	client      StatusClient
	interval    time.Duration
	maxAttempts int
	logger      *log.Logger
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

// NewPoller creates a poller over the given status client.
func NewPoller(opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultPollMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Poller{
		client:      opts.Client,
		interval:    opts.Interval,
		maxAttempts: opts.MaxAttempts,
		logger:      opts.Logger,
		sleep:       opts.Sleep,
		now:         opts.Now,
	}
}

// AwaitCompletion polls the execution until it completes, fails, or the
// attempt budget runs out. A completed execution is returned with its row
// count; a failed one returns ErrQueryFailed carrying the service's
// reason. Transient status errors consume attempts but do not abort.
func (p *Poller) AwaitCompletion(ctx context.Context, execution *Execution) (*domain.QueryExecution, error) {
	tracked := &domain.QueryExecution{
		ExecutionID: execution.ExecutionID,
		State:       domain.ExecutionStateSubmitted,
		SubmittedAt: p.now().UnixMilli(),
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		status, err := p.client.GetExecutionStatus(ctx, execution.ExecutionID)
		tracked.LastPolledAt = p.now().UnixMilli()

		if err != nil {
			if ctx.Err() != nil {
				return tracked, ctx.Err()
			}
			p.logger.Printf("poll %s attempt %d/%d: %v", execution.ExecutionID, attempt, p.maxAttempts, err)
		} else {
			switch status.State {
			case StateCompleted:
				tracked.State = domain.ExecutionStateCompleted
				if status.ResultMetadata != nil {
					tracked.RowCount = status.ResultMetadata.TotalRowCount
				}
				return tracked, nil
			case StateFailed:
				tracked.State = domain.ExecutionStateFailed
				tracked.FailureReason = status.Error
				return tracked, fmt.Errorf("execution %s: %s: %w", execution.ExecutionID, status.Error, ErrQueryFailed)
			default:
				tracked.State = domain.ExecutionStateRunning
			}
		}

		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return tracked, err
		}
	}

	tracked.State = domain.ExecutionStateTimedOut
	return tracked, fmt.Errorf("execution %s after %d attempts: %w", execution.ExecutionID, p.maxAttempts, ErrPollTimeout)
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
