package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_records (
  id              CHAR(36)     NOT NULL PRIMARY KEY,
  query           TEXT         NOT NULL,
  ts              VARCHAR(64)  NOT NULL,
  triggered_at    DATETIME(3)  NOT NULL,
  outcome         VARCHAR(16)  NOT NULL,
  task_count      INT          NOT NULL,
  succeeded_count INT          NOT NULL,
  results         JSON         NOT NULL
)`

// RecordRepository keeps exactly one ScanRecord row: every Save replaces
// whatever was there.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// EnsureSchema buat tabel kalau belum ada
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *RecordRepository) Location() string { return "mysql:scan_records" }

// Save replace record lama dalam satu transaksi
func (r *RecordRepository) Save(ctx context.Context, rec *domain.ScanRecord) error {
	results, err := encodeResults(rec.Results)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scan_records`); err != nil {
		return fmt.Errorf("%w: clear scan_records: %w", domain.ErrPersistence, err)
	}

	const q = `
INSERT INTO scan_records
(id, query, ts, triggered_at, outcome, task_count, succeeded_count, results)
VALUES (?,?,?,?,?,?,?,?)`
	_, err = tx.ExecContext(ctx, q,
		string(rec.ID), rec.Query, rec.Timestamp, triggeredAt(rec.Timestamp),
		stringOrDash(string(rec.Outcome())), len(rec.Results), countSucceeded(rec.Results),
		results,
	)
	if err != nil {
		return fmt.Errorf("%w: insert scan_records: %w", domain.ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Latest reads the single row Save keeps. The ORDER BY picks the newest
// if rows were inserted outside Save.
func (r *RecordRepository) Latest(ctx context.Context) (*domain.ScanRecord, error) {
	const q = `
SELECT id, query, ts, results
FROM scan_records
ORDER BY triggered_at DESC
LIMIT 1`
	var (
		rec domain.ScanRecord
		raw []byte
	)
	err := r.db.QueryRowContext(ctx, q).Scan(&rec.ID, &rec.Query, &rec.Timestamp, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	if rec.Results, err = decodeResults(raw); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Ping dipakai health check
func (r *RecordRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

var _ domain.RecordStore = (*RecordRepository)(nil)
