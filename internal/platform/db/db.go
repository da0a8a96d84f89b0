// Package db owns the Postgres connection pool and the report archive
// schema.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool builds a pgx pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// schema is the full DDL for this service. It is idempotent so EnsureSchema
// can run on every migrate invocation.
const schema = `
CREATE TABLE IF NOT EXISTS report_archive (
	id              UUID PRIMARY KEY,
	patient_id      TEXT NOT NULL,
	domain_count    INT NOT NULL DEFAULT 0,
	abnormal_count  INT NOT NULL DEFAULT 0,
	overall_summary TEXT NOT NULL DEFAULT '',
	markdown        TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_report_archive_patient ON report_archive (patient_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_report_archive_created ON report_archive (created_at);
`

// EnsureSchema creates the archive tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Status describes the archive schema state for the migrate status command.
type Status struct {
	TableExists bool  `json:"table_exists"`
	ReportCount int64 `json:"report_count"`
}

// SchemaStatus reports whether the archive table exists and how many rows
// it holds.
func SchemaStatus(ctx context.Context, pool *pgxpool.Pool) (Status, error) {
	var st Status
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'report_archive')`,
	).Scan(&st.TableExists)
	if err != nil {
		return st, fmt.Errorf("schema status: %w", err)
	}
	if st.TableExists {
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM report_archive`).Scan(&st.ReportCount); err != nil {
			return st, fmt.Errorf("schema status: %w", err)
		}
	}
	return st, nil
}
