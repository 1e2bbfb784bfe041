package source

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cdcetl/internal/logging"
	"cdcetl/internal/schema"
	"cdcetl/pkg/records"
)

// ErrDone signals that a chunk iterator has no more batches. It is a stop
// signal, not a failure; fetch failures surface as ordinary errors.
var ErrDone = errors.New("source: no more chunks")

// ChunkOptions control a chunked fetch sequence.
type ChunkOptions struct {
	// ChunkSize is the page size requested per call. Defaults to 1000.
	ChunkSize int

	// MaxRows caps the total rows yielded across the whole sequence.
	// Zero means no cap.
	MaxRows int

	// StartDate/EndDate filter rows by the date column, inclusive. The filter
	// only applies when the batch carries the column; batches without it pass
	// through unfiltered.
	StartDate *time.Time
	EndDate   *time.Time
}

// ChunkIterator is a restartable-per-call, forward-only, finite sequence of
// row batches. Each Chunks call returns a fresh iterator starting at offset 0.
type ChunkIterator struct {
	client *Client
	opts   ChunkOptions

	offset int
	total  int
	done   bool
}

// Chunks returns an iterator over the remote data in pages of opts.ChunkSize.
func (c *Client) Chunks(opts ChunkOptions) *ChunkIterator {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	return &ChunkIterator{client: c, opts: opts}
}

// Next fetches and returns the next batch. It returns ErrDone when the
// sequence is exhausted and a non-ErrDone error when a page fetch fails after
// retries; either way the iterator is finished.
//
// The offset always advances by ChunkSize rather than by the number of rows
// yielded, so a batch shrunk by date filtering never causes rows to be
// fetched twice. When an active date filter reduces a batch to zero rows the
// sequence stops without probing further pages; matching rows could in theory
// exist past this offset, but a source ordered by date has none, and stopping
// avoids paging through the remainder of the dataset. This early termination
// is deliberate.
func (it *ChunkIterator) Next(ctx context.Context) ([]records.Record, error) {
	if it.done {
		return nil, ErrDone
	}

	if it.opts.MaxRows > 0 && it.total >= it.opts.MaxRows {
		it.done = true
		return nil, ErrDone
	}

	limit := it.opts.ChunkSize
	if it.opts.MaxRows > 0 {
		if remaining := it.opts.MaxRows - it.total; remaining < limit {
			limit = remaining
		}
	}

	batch, err := it.client.FetchPage(ctx, limit, it.offset)
	if err != nil {
		it.done = true
		return nil, err
	}

	// A server that ignores the requested limit must not blow the row budget.
	if len(batch) > limit {
		logging.L.Warn("server returned more rows than requested; truncating",
			zap.Int("requested", limit),
			zap.Int("returned", len(batch)))
		batch = batch[:limit]
	}

	raw := len(batch)
	if raw == 0 {
		it.done = true
		return nil, ErrDone
	}

	filtering := it.opts.StartDate != nil || it.opts.EndDate != nil
	if filtering {
		if records.HasColumn(batch, schema.DateColumn) {
			filtered := batch[:0:0]
			for _, rec := range batch {
				if inDateRange(rec, it.opts.StartDate, it.opts.EndDate) {
					filtered = append(filtered, rec)
				}
			}
			batch = filtered
		} else {
			logging.L.Warn("date filtering requested but date column not found; passing batch through",
				zap.String("column", schema.DateColumn),
				zap.Int("offset", it.offset))
		}
	}

	if len(batch) == 0 && filtering {
		logging.L.Info("batch empty after date filtering; stopping fetch",
			zap.Int("offset", it.offset))
		it.done = true
		return nil, ErrDone
	}

	it.total += len(batch)
	it.offset += it.opts.ChunkSize

	if raw < limit {
		logging.L.Info("no more data to fetch",
			zap.Int("total_rows", it.total))
		it.done = true
	}
	return batch, nil
}
