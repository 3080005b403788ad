package pipeline

import (
	"context"
	"fmt"

	"solana-trader-stats/internal/dune"
)

// DefaultPageSize is the number of rows requested per result page.
const DefaultPageSize = 1000

// RowSource fetches one page of raw result rows by offset. Fetching is
// read-only; re-requesting an offset has no side effects.
type RowSource interface {
	FetchPage(ctx context.Context, offset, limit int64) ([]dune.ResultRow, error)
}

// Fetcher walks a result set page by page at strictly increasing offsets.
type Fetcher struct {
	source   RowSource
	pageSize int64
}

// NewFetcher creates a fetcher over the given source.
func NewFetcher(source RowSource, pageSize int64) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{source: source, pageSize: pageSize}
}

// From returns an iterator positioned at the given row offset. A non-zero
// offset resumes mid-result-set without refetching earlier pages.
func (f *Fetcher) From(offset int64) *RowIterator {
	return &RowIterator{
		source:   f.source,
		pageSize: f.pageSize,
		offset:   offset,
	}
}

// RowIterator yields rows one at a time, fetching pages lazily. A page
// shorter than the page size marks the end of the result set.
type RowIterator struct {
	source   RowSource
	pageSize int64
	offset   int64

	page []dune.ResultRow
	pos  int
	done bool
}

// Next returns the next row. ok is false when the result set is
// exhausted or an error occurred.
func (it *RowIterator) Next(ctx context.Context) (dune.ResultRow, bool, error) {
	if it.pos >= len(it.page) {
		if it.done {
			return nil, false, nil
		}

		page, err := it.source.FetchPage(ctx, it.offset, it.pageSize)
		if err != nil {
			it.done = true
			return nil, false, fmt.Errorf("page at offset %d: %v: %w", it.offset, err, ErrSourceFetch)
		}

		if int64(len(page)) < it.pageSize {
			it.done = true
		}
		if len(page) == 0 {
			return nil, false, nil
		}

		it.offset += int64(len(page))
		it.page = page
		it.pos = 0
	}

	row := it.page[it.pos]
	it.pos++
	return row, true, nil
}
