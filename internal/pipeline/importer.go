package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/dune"
	"solana-trader-stats/internal/storage"
)

// DefaultBatchSize is the number of rows accumulated before a bulk write.
const DefaultBatchSize = 1000

// Result-set column names produced by the volume queries.
const (
	colTrader = "user"
	colVolume = "total_volume_usd"
)

// ImporterOptions configures Importer.
type ImporterOptions struct {
	Stats       storage.TraderStatStore
	Checkpoints storage.CheckpointStore
	BatchSize   int
	Logger      *log.Logger
	Now         func() time.Time
}

// Importer drains a result set into the trader stat store in fixed-size
// batches, advancing a per-protocol checkpoint after every committed
// batch so an interrupted run can resume without duplicating work.
type Importer struct {
	stats       storage.TraderStatStore
	checkpoints storage.CheckpointStore
	batchSize   int
	logger      *log.Logger
	now         func() time.Time
}

// NewImporter creates an importer.
func NewImporter(opts ImporterOptions) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Importer{
		stats:       opts.Stats,
		checkpoints: opts.Checkpoints,
		batchSize:   opts.BatchSize,
		logger:      opts.Logger,
		now:         opts.Now,
	}
}

// ImportAll drains the fetcher into the store. With resume set, the run
// starts at the checkpointed row offset; otherwise any stale checkpoint
// is cleared and the run starts from row zero.
//
// The checkpoint counts source rows consumed, valid or not, so a resumed
// run re-requests exactly the unconsumed tail of the result set.
func (im *Importer) ImportAll(ctx context.Context, protocol, date string, fetcher *Fetcher, resume bool) (*domain.ImportSummary, error) {
	started := im.now()

	summary := &domain.ImportSummary{
		Protocol: protocol,
		Date:     date,
	}

	var consumed int64
	var lastPage int64

	if resume {
		cp, err := im.checkpoints.Get(ctx, protocol)
		switch {
		case err == nil:
			consumed = cp.RowsImported
			lastPage = cp.LastPage
			summary.Resumed = true
			summary.Skipped = cp.RowsImported
			im.logger.Printf("resuming %s import at row %d (page %d)", protocol, consumed, lastPage)
		case errors.Is(err, storage.ErrNotFound):
			// fresh run
		default:
			return nil, fmt.Errorf("read checkpoint for %s: %w", protocol, err)
		}
	} else {
		if err := im.checkpoints.Clear(ctx, protocol); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("clear checkpoint for %s: %w", protocol, err)
		}
	}

	it := fetcher.From(consumed)
	batch := make([]*domain.TraderStat, 0, im.batchSize)
	var batchRows int64

	flush := func() error {
		if batchRows == 0 {
			return nil
		}

		inserted, err := im.insertWithRetry(ctx, protocol, batch)
		if err != nil {
			return err
		}

		consumed += batchRows
		lastPage++
		summary.Inserted += inserted
		summary.Skipped += int64(len(batch)) - inserted

		cp := &domain.ImportCheckpoint{
			Protocol:     protocol,
			RowsImported: consumed,
			LastPage:     lastPage,
			StartedAt:    started.UnixMilli(),
			UpdatedAt:    im.now().UnixMilli(),
		}
		if err := im.checkpoints.Put(ctx, cp); err != nil {
			return fmt.Errorf("save checkpoint for %s: %w", protocol, err)
		}

		batch = batch[:0]
		batchRows = 0
		return nil
	}

	for {
		row, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		batchRows++

		stat, err := im.transform(protocol, date, row)
		if err != nil {
			summary.Invalid++
			im.logger.Printf("skipping invalid %s row: %v", protocol, err)
		} else {
			batch = append(batch, stat)
		}

		if batchRows >= int64(im.batchSize) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	summary.CheckpointRows = consumed
	summary.Duration = im.now().Sub(started)
	im.logger.Printf("imported %s: %d inserted, %d skipped, %d invalid in %s",
		protocol, summary.Inserted, summary.Skipped, summary.Invalid, summary.Duration)

	return summary, nil
}

// insertWithRetry writes one batch, retrying once on failure before
// giving up with ErrBatchWrite.
func (im *Importer) insertWithRetry(ctx context.Context, protocol string, batch []*domain.TraderStat) (int64, error) {
	inserted, err := im.stats.InsertBulkSkipDuplicates(ctx, batch)
	if err == nil {
		return inserted, nil
	}

	im.logger.Printf("batch write for %s failed, retrying: %v", protocol, err)

	inserted, err = im.stats.InsertBulkSkipDuplicates(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("%d rows for %s: %v: %w", len(batch), protocol, err, ErrBatchWrite)
	}
	return inserted, nil
}

// transform converts one raw result row into a trader stat. Rows with a
// malformed address or volume are rejected; missing or null volume
// coerces to zero.
func (im *Importer) transform(protocol, date string, row dune.ResultRow) (*domain.TraderStat, error) {
	trader, err := stringField(row, colTrader)
	if err != nil {
		return nil, err
	}
	if err := validateAddress(trader); err != nil {
		return nil, fmt.Errorf("address %q: %w", trader, err)
	}

	volume, err := coerceVolume(row[colVolume])
	if err != nil {
		return nil, fmt.Errorf("trader %s: %w", trader, err)
	}

	return &domain.TraderStat{
		Protocol:  protocol,
		Trader:    trader,
		Volume:    volume,
		Chain:     domain.ChainSolana,
		Date:      date,
		CreatedAt: im.now().UnixMilli(),
	}, nil
}

// stringField extracts a non-empty string column from the row.
func stringField(row dune.ResultRow, col string) (string, error) {
	raw, ok := row[col]
	if !ok {
		return "", fmt.Errorf("missing column %q", col)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("column %q is not a string", col)
	}
	if s == "" {
		return "", fmt.Errorf("column %q is empty", col)
	}
	return s, nil
}

// validateAddress checks that the trader address is a well-formed
// 32-byte base58 public key.
func validateAddress(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("not base58: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("decoded to %d bytes, want 32", len(decoded))
	}
	return nil
}

// coerceVolume parses the volume column. The source emits plain numbers,
// scientific notation, quoted numbers, the literal "<nil>", or null;
// the nil-ish forms coerce to zero, negatives are rejected.
func coerceVolume(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Zero, nil
	}

	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return decimal.Zero, nil
	}

	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("malformed volume %s", text)
		}
		text = strings.TrimSpace(s)
		if text == "" || text == "<nil>" {
			return decimal.Zero, nil
		}
	}

	volume, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed volume %q", text)
	}
	if volume.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative volume %s", volume)
	}

	return volume.Round(2), nil
}
