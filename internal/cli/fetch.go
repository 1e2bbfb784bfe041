package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cdcetl/internal/etl"
	"cdcetl/internal/logging"
	"cdcetl/internal/metrics"
	"cdcetl/internal/metrics/prompush"
	"cdcetl/internal/source"
	"cdcetl/internal/storage"
	_ "cdcetl/internal/storage/all"
)

// openRepository is a test hook that points to storage.New by default.
var openRepository = storage.New

// newFetchCmd creates the 'fetch' subcommand, which runs the full pipeline:
// chunked fetch from the API, cleaning, and load into the configured backend.
func newFetchCmd() *cobra.Command {
	var (
		limit     int
		maxRows   int
		chunkSize int
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the CDC COVID-19 case data and load it into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// --limit is the historical name for the per-call row count; an
			// explicit --chunk-size wins when both are given.
			if !cmd.Flags().Changed("chunk-size") && cmd.Flags().Changed("limit") {
				chunkSize = limit
			}

			opts := source.ChunkOptions{
				ChunkSize: chunkSize,
				MaxRows:   maxRows,
			}
			var err error
			if opts.StartDate, err = parseDateFlag("start-date", startDate); err != nil {
				return err
			}
			if opts.EndDate, err = parseDateFlag("end-date", endDate); err != nil {
				return err
			}
			if opts.StartDate != nil && opts.EndDate != nil && opts.EndDate.Before(*opts.StartDate) {
				return fmt.Errorf("--end-date is before --start-date")
			}

			if err := setupMetrics(); err != nil {
				return err
			}
			defer flushMetrics()

			client := source.New(source.Config{
				BaseURL:   cfg.API.BaseURL,
				Timeout:   cfg.HTTP.Timeout(),
				Retries:   cfg.HTTP.Retries,
				RetryWait: cfg.HTTP.RetryWait(),
			})

			repo, err := openRepository(cmd.Context(), storage.Config{
				Kind: cfg.Storage.Kind,
				DSN:  cfg.Storage.DSN,
			})
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer repo.Close()

			sum, err := etl.Run(cmd.Context(), client, repo, etl.Options{Chunk: opts})
			if err != nil {
				return fmt.Errorf("fetch run: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Fetched %d rows in %d chunks; loaded %d, dropped %d, failed batches %d.\n",
				sum.RowsFetched, sum.Chunks, sum.RowsLoaded, sum.RowsDropped, sum.FailedBatches)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 1000, "number of rows to fetch per API call")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "maximum number of rows to fetch in total (0 = all)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "number of rows to process in each chunk")
	cmd.Flags().StringVar(&startDate, "start-date", "", "keep only cases on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "keep only cases on or before this date (YYYY-MM-DD)")

	return cmd
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %q is not a YYYY-MM-DD date", name, value)
	}
	return &t, nil
}

func setupMetrics() error {
	if cfg.Metrics.Backend != "pushgateway" {
		return nil
	}
	b, err := prompush.NewBackend(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	metrics.SetBackend(b)
	return nil
}

func flushMetrics() {
	if err := metrics.Flush(); err != nil {
		logging.L.Warn("failed to push metrics", zap.Error(err))
	}
}
