package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_records (
  id              UUID        PRIMARY KEY,
  query           TEXT        NOT NULL,
  ts              TEXT        NOT NULL,
  triggered_at    TIMESTAMPTZ NOT NULL,
  outcome         TEXT        NOT NULL,
  task_count      INTEGER     NOT NULL,
  succeeded_count INTEGER     NOT NULL,
  results         JSONB       NOT NULL
)`

// RecordRepository keeps exactly one ScanRecord row.
type RecordRepository struct{ db *sql.DB }

func NewRecordRepository(db *sql.DB) *RecordRepository { return &RecordRepository{db: db} }

func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *RecordRepository) Location() string { return "postgres:scan_records" }

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
VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb)`
	_, err = tx.ExecContext(ctx, q,
		string(rec.ID), rec.Query, rec.Timestamp, triggeredAt(rec.Timestamp),
		stringOrDash(string(rec.Outcome())), len(rec.Results), countSucceeded(rec.Results),
		string(results),
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

func (r *RecordRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

var _ domain.RecordStore = (*RecordRepository)(nil)
