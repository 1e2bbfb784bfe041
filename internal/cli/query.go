package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cdcetl/internal/logging"
	"cdcetl/internal/storage"
)

// newQueryCmd creates the 'query_data' subcommand tree. Each query runs one
// canned aggregate against the loaded data and prints a small table.
func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query_data",
		Short: "Query the loaded CDC COVID-19 case data",
	}

	var state string
	totalCases := &cobra.Command{
		Use:   "total_cases",
		Short: "Total cases by state, most affected first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, "res_state", func(ctx context.Context, repo storage.Repository) ([]storage.GroupCount, error) {
				return repo.TotalCasesByState(ctx, state)
			})
		},
	}
	totalCases.Flags().StringVar(&state, "state", "", `state code to filter by (e.g. "NY")`)

	byAgeGroup := &cobra.Command{
		Use:   "cases_by_age_group",
		Short: "Total cases by age group, most affected first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, "age_group", func(ctx context.Context, repo storage.Repository) ([]storage.GroupCount, error) {
				return repo.CasesByAgeGroup(ctx)
			})
		},
	}

	bySex := &cobra.Command{
		Use:   "cases_by_sex",
		Short: "Total cases by sex, most affected first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, "sex", func(ctx context.Context, repo storage.Repository) ([]storage.GroupCount, error) {
				return repo.CasesBySex(ctx)
			})
		},
	}

	cmd.AddCommand(totalCases, byAgeGroup, bySex)
	return cmd
}

func runQuery(cmd *cobra.Command, groupLabel string, q func(context.Context, storage.Repository) ([]storage.GroupCount, error)) error {
	repo, err := openRepository(cmd.Context(), storage.Config{
		Kind: cfg.Storage.Kind,
		DSN:  cfg.Storage.DSN,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	// The table is created idempotently at startup, so a query against a
	// fresh database sees an empty table rather than a missing one.
	if err := repo.EnsureSchema(cmd.Context()); err != nil {
		logging.L.Warn("could not ensure schema before query", zap.Error(err))
	}

	// A failing query degrades to an empty result set; the cause goes to the
	// log, not the exit code.
	rows, err := q(cmd.Context(), repo)
	if err != nil {
		logging.L.Error("query failed; returning no results", zap.Error(err))
		rows = nil
	}
	printGroupCounts(cmd, groupLabel, rows)
	return nil
}

// printGroupCounts renders the result the way the query commands always have:
// a blank line, a header, and an aligned two-column table, or a friendly
// message when the query matched nothing.
func printGroupCounts(cmd *cobra.Command, groupLabel string, rows []storage.GroupCount) {
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "No results found for your query.")
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Query Results:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\ttotal_cases\n", groupLabel)
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\n", r.Group, r.Count)
	}
	_ = w.Flush()
}
