// Package mysql implements the primary storage backend over database/sql and
// the go-sql-driver. Batches are applied with a single multi-row
// INSERT ... ON DUPLICATE KEY UPDATE inside a transaction: a re-observed case
// keeps its identity columns and only the volatile outcome columns change.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"cdcetl/internal/logging"
	"cdcetl/internal/schema"
	"cdcetl/internal/storage"
	"cdcetl/pkg/records"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN string // go-sql-driver DSN, e.g. "user:pass@tcp(host:3306)/db?parseTime=true"
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a connection pool for cfg.DSN and pings it to fail fast
// on bad credentials or an unreachable server. It returns the repository plus
// a close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	logging.L.Info("connected to mysql")
	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

var createTableSQL = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INT AUTO_INCREMENT PRIMARY KEY,
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
	UNIQUE KEY unique_case (case_month, res_state, age_group, sex, race, ethnicity)
)`, schema.Table)

// EnsureSchema creates the case table if it does not exist. Idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("mysql: create table: %w", err)
	}
	return nil
}

// upsertSQL builds the multi-row upsert statement for n rows.
func upsertSQL(n int) string {
	cols := schema.InsertColumns

	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	tuple := "(" + strings.Join(placeholders, ", ") + ")"

	tuples := make([]string, n)
	for i := range tuples {
		tuples[i] = tuple
	}

	updates := make([]string, len(schema.VolatileColumns))
	for i, c := range schema.VolatileColumns {
		updates[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON DUPLICATE KEY UPDATE %s",
		schema.Table,
		strings.Join(cols, ", "),
		strings.Join(tuples, ", "),
		strings.Join(updates, ", "),
	)
}

// UpsertCases applies one cleaned batch in a single statement and transaction.
// The batch either lands in full or not at all. The returned count is the
// driver-reported affected-row count, which MySQL reports as 1 per insert and
// 2 per updated duplicate.
func (r *Repository) UpsertCases(ctx context.Context, recs []records.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(recs)*len(schema.InsertColumns))
	for _, row := range storage.BatchValues(recs) {
		args = append(args, row...)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	res, err := tx.ExecContext(ctx, upsertSQL(len(recs)), args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mysql: upsert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	logging.L.Info("upserted batch",
		zap.Int("rows", len(recs)),
		zap.Int64("affected", affected))
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
		return nil, fmt.Errorf("mysql: query: %w", err)
	}
	defer rows.Close()

	var out []storage.GroupCount
	for rows.Next() {
		var gc storage.GroupCount
		if err := rows.Scan(&gc.Group, &gc.Count); err != nil {
			return nil, fmt.Errorf("mysql: scan: %w", err)
		}
		out = append(out, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: rows: %w", err)
	}
	return out, nil
}
