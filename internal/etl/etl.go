// Package etl orchestrates one pipeline run: fetch chunks from the case API,
// clean each chunk, and load it into storage. The run is synchronous; chunks
// move through the pipeline one at a time.
package etl

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cdcetl/internal/logging"
	"cdcetl/internal/metrics"
	"cdcetl/internal/source"
	"cdcetl/internal/storage"
	"cdcetl/internal/transformer"
)

// Options configures one run.
type Options struct {
	Chunk source.ChunkOptions
}

// Summary reports what a run did. A run that hit load failures still counts
// the chunks and rows it managed to process.
type Summary struct {
	Chunks        int
	RowsFetched   int
	RowsDropped   int
	RowsLoaded    int64
	FailedBatches int
	Elapsed       time.Duration
}

// Run executes the pipeline until the source is exhausted or fetching fails.
// A fetch failure aborts the run, since every later page would start from a
// hole in the data. A load failure is logged and counted, and the run moves
// on to the next chunk; the upsert keys make a partial run safe to repeat.
func Run(ctx context.Context, client *source.Client, repo storage.Repository, opts Options) (Summary, error) {
	start := time.Now()
	var sum Summary

	ensureStart := time.Now()
	err := repo.EnsureSchema(ctx)
	metrics.RecordStep("ensure_schema", err, time.Since(ensureStart))
	if err != nil {
		sum.Elapsed = time.Since(start)
		return sum, err
	}

	it := client.Chunks(opts.Chunk)
	for {
		fetchStart := time.Now()
		batch, err := it.Next(ctx)
		if errors.Is(err, source.ErrDone) {
			break
		}
		metrics.RecordStep("fetch", err, time.Since(fetchStart))
		if err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}

		sum.Chunks++
		sum.RowsFetched += len(batch)
		metrics.RecordRows("fetched", int64(len(batch)))

		cleanStart := time.Now()
		cleaned := transformer.CleanCases(batch)
		metrics.RecordStep("transform", nil, time.Since(cleanStart))
		sum.RowsDropped += len(batch) - len(cleaned)
		metrics.RecordRows("cleaned", int64(len(cleaned)))
		metrics.RecordRows("dropped", int64(len(batch)-len(cleaned)))

		if len(cleaned) == 0 {
			logging.L.Warn("chunk cleaned to empty; skipping load",
				zap.Int("chunk", sum.Chunks),
				zap.Int("rows_fetched", len(batch)))
			metrics.RecordChunk("empty")
			continue
		}

		loadStart := time.Now()
		affected, err := repo.UpsertCases(ctx, cleaned)
		metrics.RecordStep("load", err, time.Since(loadStart))
		if err != nil {
			sum.FailedBatches++
			metrics.RecordChunk("load_failed")
			logging.L.Error("failed to load chunk; continuing with next",
				zap.Int("chunk", sum.Chunks),
				zap.Int("rows", len(cleaned)),
				zap.Error(err))
			continue
		}

		sum.RowsLoaded += affected
		metrics.RecordRows("loaded", int64(len(cleaned)))
		metrics.RecordChunk("ok")
	}

	sum.Elapsed = time.Since(start)
	logging.L.Info("run complete",
		zap.Int("chunks", sum.Chunks),
		zap.Int("rows_fetched", sum.RowsFetched),
		zap.Int("rows_dropped", sum.RowsDropped),
		zap.Int64("rows_loaded", sum.RowsLoaded),
		zap.Int("failed_batches", sum.FailedBatches),
		zap.Duration("elapsed", sum.Elapsed))
	return sum, nil
}
