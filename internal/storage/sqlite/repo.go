// Package sqlite implements the storage backend over database/sql and the
// modernc.org driver. It is the zero-infrastructure option for local runs and
// integration-style tests; semantics match the mysql backend, with per-row
// prepared inserts inside a transaction since SQLite has no multi-row upsert
// worth the statement-length tradeoff.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"cdcetl/internal/schema"
	"cdcetl/internal/storage"
	"cdcetl/pkg/records"
)

// Config holds SQLite repository configuration.
type Config struct {
	DSN string // file path or URI, e.g. "file:cases.db?cache=shared"
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database file and returns a Repository plus a close
// function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

var createTableSQL = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	case_month TEXT,
	res_state TEXT,
	state_fips_code INTEGER,
	age_group TEXT,
	sex TEXT,
	race TEXT,
	ethnicity TEXT,
	case_positive_specimen_interval INTEGER,
	case_onset_interval INTEGER,
	process TEXT,
	exposure_yn TEXT,
	current_status TEXT,
	symptom_status TEXT,
	hosp_yn TEXT,
	icu_yn TEXT,
	death_yn TEXT,
	underlying_conditions_yn TEXT,
	UNIQUE (case_month, res_state, age_group, sex, race, ethnicity)
)`, schema.Table)

// EnsureSchema creates the case table if it does not exist. Idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}
	return nil
}

// upsertSQL is the per-row upsert statement.
func upsertSQL() string {
	cols := schema.InsertColumns

	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	updates := make([]string, len(schema.VolatileColumns))
	for i, c := range schema.VolatileColumns {
		updates[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		schema.Table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(schema.KeyColumns, ", "),
		strings.Join(updates, ", "),
	)
}

// UpsertCases applies one cleaned batch with a prepared statement inside a
// transaction. The batch either lands in full or not at all.
func (r *Repository) UpsertCases(ctx context.Context, recs []records.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL())
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	var affected int64
	for _, row := range storage.BatchValues(recs) {
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: upsert: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return affected, nil
}

// TotalCasesByState counts cases per state, most affected first. A non-empty
// state narrows the result to that state.
func (r *Repository) TotalCasesByState(ctx context.Context, state string) ([]storage.GroupCount, error) {
	query := fmt.Sprintf("SELECT res_state, COUNT(*) AS total_cases FROM %s", schema.Table)
	var args []any
	if state != "" {
		query += " WHERE res_state = ?"
		args = append(args, state)
	}
	query += " GROUP BY res_state ORDER BY total_cases DESC"
	return r.groupQuery(ctx, query, args...)
}

// CasesByAgeGroup counts cases per age group, most affected first.
func (r *Repository) CasesByAgeGroup(ctx context.Context) ([]storage.GroupCount, error) {
	query := fmt.Sprintf(
		"SELECT age_group, COUNT(*) AS total_cases FROM %s GROUP BY age_group ORDER BY total_cases DESC",
		schema.Table)
	return r.groupQuery(ctx, query)
}

// CasesBySex counts cases per sex, most affected first.
func (r *Repository) CasesBySex(ctx context.Context) ([]storage.GroupCount, error) {
	query := fmt.Sprintf(
		"SELECT sex, COUNT(*) AS total_cases FROM %s GROUP BY sex ORDER BY total_cases DESC",
		schema.Table)
	return r.groupQuery(ctx, query)
}

func (r *Repository) groupQuery(ctx context.Context, query string, args ...any) ([]storage.GroupCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	var out []storage.GroupCount
	for rows.Next() {
		var gc storage.GroupCount
		if err := rows.Scan(&gc.Group, &gc.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		out = append(out, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	return out, nil
}
