package store

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS brief;

CREATE TABLE IF NOT EXISTS brief.briefs (
	brief_date   DATE PRIMARY KEY,
	record_count INT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS brief.brief_items (
	brief_date  DATE NOT NULL REFERENCES brief.briefs (brief_date) ON DELETE CASCADE,
	symbol      TEXT NOT NULL,
	action      TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	risk_level  TEXT NOT NULL,
	reasoning   TEXT NOT NULL,
	payload     JSONB NOT NULL,
	PRIMARY KEY (brief_date, symbol)
);

CREATE INDEX IF NOT EXISTS brief_items_symbol_idx ON brief.brief_items (symbol, brief_date DESC);
`

// EnsureSchema creates the brief tables if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
