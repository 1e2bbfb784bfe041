// Package postgres implements the storage backend over pgx v5. Batches are
// applied row by row inside a transaction with INSERT ... ON CONFLICT DO
// UPDATE, overwriting only the volatile outcome columns.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cdcetl/internal/logging"
	"cdcetl/internal/schema"
	"cdcetl/internal/storage"
	"cdcetl/pkg/records"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // pgxpool connection string
}

// db is the subset of pgxpool.Pool the repository uses; tests substitute a
// mock pool.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool db
	cfg  Config
}

// NewRepository constructs a Repository and returns a close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	logging.L.Info("connected to postgres")
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

var createTableSQL = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	case_month DATE,
	res_state VARCHAR(50),
	state_fips_code INT,
	age_group VARCHAR(50),
	sex VARCHAR(20),
	race VARCHAR(100),
	ethnicity VARCHAR(100),
	case_positive_specimen_interval INT,
	case_onset_interval INT,
	process VARCHAR(50),
	exposure_yn VARCHAR(20),
	current_status VARCHAR(50),
	symptom_status VARCHAR(50),
	hosp_yn VARCHAR(20),
	icu_yn VARCHAR(20),
	death_yn VARCHAR(20),
	underlying_conditions_yn VARCHAR(20),
	CONSTRAINT unique_case UNIQUE (case_month, res_state, age_group, sex, race, ethnicity)
)`, schema.Table)

// EnsureSchema creates the case table if it does not exist. Idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}
	return nil
}

// upsertSQL is the per-row upsert statement with positional placeholders.
func upsertSQL() string {
	cols := schema.InsertColumns

	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	updates := make([]string, len(schema.VolatileColumns))
	for i, c := range schema.VolatileColumns {
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT ON CONSTRAINT unique_case DO UPDATE SET %s",
		schema.Table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

// UpsertCases applies one cleaned batch inside a transaction. The batch either
// lands in full or not at all.
func (r *Repository) UpsertCases(ctx context.Context, recs []records.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := upsertSQL()
	var affected int64
	for _, row := range storage.BatchValues(recs) {
		tag, err := tx.Exec(ctx, query, row...)
		if err != nil {
			return 0, fmt.Errorf("postgres: upsert: %w", err)
		}
		affected += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return affected, nil
}

// TotalCasesByState counts cases per state, most affected first. A non-empty
// state narrows the result to that state.
func (r *Repository) TotalCasesByState(ctx context.Context, state string) ([]storage.GroupCount, error) {
	query := fmt.Sprintf("SELECT res_state, COUNT(*) AS total_cases FROM %s", schema.Table)
	var args []any
	if state != "" {
		query += " WHERE res_state = $1"
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
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var out []storage.GroupCount
	for rows.Next() {
		var gc storage.GroupCount
		if err := rows.Scan(&gc.Group, &gc.Count); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}
	return out, nil
}
