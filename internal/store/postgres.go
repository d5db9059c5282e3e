package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/dailybrief/internal/contracts"
)

// PostgresStore implements contracts.HistoryStore and contracts.Publisher
// ⭐ SSOT: 발행 이력 저장/조회는 여기서만
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a new store on an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// GetRecentSymbols returns symbols published within the window, sorted
func (s *PostgresStore) GetRecentSymbols(ctx context.Context, windowDays int) ([]string, error) {
	query := `
		SELECT DISTINCT symbol
		FROM brief.brief_items
		WHERE brief_date >= $1
		ORDER BY symbol
	`

	rows, err := s.pool.Query(ctx, query, windowStart(s.now(), windowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return symbols, nil
}

// GetRecentSummaries renders past recommendations within the window, newest first
func (s *PostgresStore) GetRecentSummaries(ctx context.Context, windowDays int) (string, error) {
	query := `
		SELECT brief_date, symbol, action, confidence, reasoning
		FROM brief.brief_items
		WHERE brief_date >= $1
		ORDER BY brief_date DESC, confidence DESC, symbol
	`

	rows, err := s.pool.Query(ctx, query, windowStart(s.now(), windowDays))
	if err != nil {
		return "", fmt.Errorf("failed to query recent summaries: %w", err)
	}
	defer rows.Close()

	var lines []summaryLine
	for rows.Next() {
		var l summaryLine
		if err := rows.Scan(&l.Date, &l.Symbol, &l.Action, &l.Confidence, &l.Reasoning); err != nil {
			return "", fmt.Errorf("failed to scan row: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating rows: %w", err)
	}
	return formatSummaries(lines), nil
}

// Publish replaces the brief for date with the given records
func (s *PostgresStore) Publish(ctx context.Context, records []contracts.ValidatedRecord, date time.Time) error {
	day := dateOnly(date)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO brief.briefs (brief_date, record_count, published_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (brief_date) DO UPDATE SET
			record_count = EXCLUDED.record_count,
			published_at = NOW()
	`, day, len(records))
	if err != nil {
		return fmt.Errorf("failed to save brief: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM brief.brief_items WHERE brief_date = $1`, day); err != nil {
		return fmt.Errorf("failed to clear brief items: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", rec.Symbol(), err)
		}
		batch.Queue(`
			INSERT INTO brief.brief_items (
				brief_date, symbol, action, confidence, risk_level, reasoning, payload
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, day, rec.Symbol(), rec.Recommendation.Action, rec.Recommendation.Confidence,
			rec.Recommendation.RiskLevel, rec.Recommendation.Reasoning, payload)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save brief items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
