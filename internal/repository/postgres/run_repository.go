package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lyrasnap/internal/domain/options"
	"lyrasnap/pkg/errors"
)

// SnapshotRunsSchema creates the run ledger table
const SnapshotRunsSchema = `
	CREATE TABLE IF NOT EXISTS snapshot_runs (
		run_id            UUID PRIMARY KEY,
		currency          TEXT NOT NULL,
		seed_expiry       TEXT NOT NULL,
		generated_at      TIMESTAMPTZ NOT NULL,
		listed            INTEGER NOT NULL,
		active            INTEGER NOT NULL,
		details           INTEGER NOT NULL,
		expiries          TEXT[] NOT NULL DEFAULT '{}',
		quoted_rows       INTEGER NOT NULL,
		missing_quotes    INTEGER NOT NULL,
		missing_by_expiry JSONB NOT NULL DEFAULT '{}',
		zero_ask_rows     INTEGER NOT NULL,
		rows_written      INTEGER NOT NULL,
		output_path       TEXT NOT NULL,
		file_size         BIGINT NOT NULL,
		duration_ms       BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS snapshot_runs_currency_generated_at
		ON snapshot_runs (currency, generated_at DESC);
`

// Compile-time check
var _ options.RunRepository = (*RunRepository)(nil)

// RunRepository implements options.RunRepository using sqlx
type RunRepository struct {
	db DBTX
}

// NewRunRepository creates a new snapshot run repository
func NewRunRepository(db DBTX) *RunRepository {
	return &RunRepository{db: db}
}

type runRow struct {
	RunID           uuid.UUID      `db:"run_id"`
	Currency        string         `db:"currency"`
	SeedExpiry      string         `db:"seed_expiry"`
	GeneratedAt     time.Time      `db:"generated_at"`
	Listed          int            `db:"listed"`
	Active          int            `db:"active"`
	Details         int            `db:"details"`
	Expiries        pq.StringArray `db:"expiries"`
	QuotedRows      int            `db:"quoted_rows"`
	MissingQuotes   int            `db:"missing_quotes"`
	MissingByExpiry []byte         `db:"missing_by_expiry"`
	ZeroAskRows     int            `db:"zero_ask_rows"`
	RowsWritten     int            `db:"rows_written"`
	OutputPath      string         `db:"output_path"`
	FileSize        int64          `db:"file_size"`
	DurationMs      int64          `db:"duration_ms"`
}

// EnsureSchema creates the ledger table if it does not exist
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, SnapshotRunsSchema); err != nil {
		return errors.Wrap(err, "create snapshot_runs")
	}
	return nil
}

// Create inserts the report of a finished run
func (r *RunRepository) Create(ctx context.Context, report *options.Report) error {
	missing, err := json.Marshal(report.MissingByExpiry)
	if err != nil {
		return errors.Wrap(err, "marshal missing_by_expiry")
	}
	if report.MissingByExpiry == nil {
		missing = []byte("{}")
	}

	row := runRow{
		RunID:           report.RunID,
		Currency:        report.Currency,
		SeedExpiry:      report.SeedExpiry,
		GeneratedAt:     report.GeneratedAt,
		Listed:          report.Listed,
		Active:          report.Active,
		Details:         report.Details,
		Expiries:        pq.StringArray(report.Expiries),
		QuotedRows:      report.QuotedRows,
		MissingQuotes:   report.MissingQuotes,
		MissingByExpiry: missing,
		ZeroAskRows:     report.ZeroAskRows,
		RowsWritten:     report.RowsWritten,
		OutputPath:      report.OutputPath,
		FileSize:        report.FileSize,
		DurationMs:      report.Duration.Milliseconds(),
	}
	if row.Expiries == nil {
		row.Expiries = pq.StringArray{}
	}

	query := `
		INSERT INTO snapshot_runs (
			run_id, currency, seed_expiry, generated_at,
			listed, active, details, expiries,
			quoted_rows, missing_quotes, missing_by_expiry, zero_ask_rows,
			rows_written, output_path, file_size, duration_ms
		) VALUES (
			:run_id, :currency, :seed_expiry, :generated_at,
			:listed, :active, :details, :expiries,
			:quoted_rows, :missing_quotes, :missing_by_expiry, :zero_ask_rows,
			:rows_written, :output_path, :file_size, :duration_ms
		)`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrapf(err, "insert snapshot run %s", report.RunID)
	}
	return nil
}

// GetLatest returns the most recent run of a currency
func (r *RunRepository) GetLatest(ctx context.Context, currency string) (*options.Report, error) {
	var row runRow

	query := `
		SELECT * FROM snapshot_runs
		WHERE currency = $1
		ORDER BY generated_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &row, query, currency)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "no snapshot run for %s", currency)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get latest snapshot run for %s", currency)
	}

	return row.toReport()
}

func (row runRow) toReport() (*options.Report, error) {
	report := &options.Report{
		RunID:       row.RunID,
		Currency:    row.Currency,
		SeedExpiry:  row.SeedExpiry,
		GeneratedAt: row.GeneratedAt,
		Listed:      row.Listed,
		Active:      row.Active,
		Details:     row.Details,
		Expiries:    []string(row.Expiries),
		QuotedRows:  row.QuotedRows,
		ZeroAskRows: row.ZeroAskRows,
		RowsWritten: row.RowsWritten,
		OutputPath:  row.OutputPath,
		FileSize:    row.FileSize,
		Duration:    time.Duration(row.DurationMs) * time.Millisecond,

		MissingQuotes:   row.MissingQuotes,
		MissingByExpiry: make(map[string]int),
	}
	if len(row.MissingByExpiry) > 0 {
		if err := json.Unmarshal(row.MissingByExpiry, &report.MissingByExpiry); err != nil {
			return nil, errors.Wrap(err, "unmarshal missing_by_expiry")
		}
	}
	return report, nil
}
