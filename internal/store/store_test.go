package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/pkg/config"
	"github.com/wonny/dailybrief/pkg/database"
)

func record(symbol, action string, confidence float64, reasoning string) contracts.ValidatedRecord {
	return contracts.ValidatedRecord{
		Recommendation: contracts.Recommendation{
			Symbol:     symbol,
			Action:     action,
			Confidence: confidence,
			RiskLevel:  "Medium",
			Reasoning:  reasoning,
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func TestMemoryStoreRecentSymbols(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.now = fixedNow

	require.NoError(t, m.Publish(ctx, []contracts.ValidatedRecord{
		record("NVDA", "Buy", 80, "AI demand"),
		record("AAPL", "Hold", 60, "steady"),
	}, fixedNow().AddDate(0, 0, -2)))
	require.NoError(t, m.Publish(ctx, []contracts.ValidatedRecord{
		record("XOM", "Sell", 55, "oil slump"),
	}, fixedNow().AddDate(0, 0, -20)))

	symbols, err := m.GetRecentSymbols(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, symbols)

	symbols, err = m.GetRecentSymbols(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA", "XOM"}, symbols)
}

func TestMemoryStoreSummaries(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.now = fixedNow

	require.NoError(t, m.Publish(ctx, []contracts.ValidatedRecord{
		record("AAPL", "Hold", 60, "steady\n  services growth"),
		record("NVDA", "Buy", 80, "AI demand"),
	}, fixedNow().AddDate(0, 0, -1)))
	require.NoError(t, m.Publish(ctx, []contracts.ValidatedRecord{
		record("MSFT", "Buy", 70, "cloud"),
	}, fixedNow()))

	text, err := m.GetRecentSummaries(ctx, 30)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2026-03-10 MSFT Buy (70%): cloud", lines[0])
	assert.Equal(t, "2026-03-09 NVDA Buy (80%): AI demand", lines[1])
	assert.Equal(t, "2026-03-09 AAPL Hold (60%): steady services growth", lines[2])
}

func TestMemoryStorePublishReplacesDay(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.now = fixedNow

	_, _, ok := m.Latest()
	assert.False(t, ok)

	require.NoError(t, m.Publish(ctx, []contracts.ValidatedRecord{record("AAPL", "Buy", 50, "x")}, fixedNow()))
	require.NoError(t, m.Publish(ctx, []contracts.ValidatedRecord{record("MSFT", "Buy", 50, "y")}, fixedNow().Add(3*time.Hour)))

	day, recs, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, "2026-03-10", day.Format("2006-01-02"))
	require.Len(t, recs, 1)
	assert.Equal(t, "MSFT", recs[0].Symbol())
}

func TestFormatSummariesTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	text := formatSummaries([]summaryLine{{Date: fixedNow(), Symbol: "AAPL", Action: "Buy", Confidence: 50, Reasoning: long}})
	assert.Less(t, len([]rune(text)), 220)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "…"))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute})
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStore(db.Pool)
	require.NoError(t, s.EnsureSchema(ctx))

	day := time.Now().UTC()
	require.NoError(t, s.Publish(ctx, []contracts.ValidatedRecord{
		record("ZZTEST", "Buy", 77, "integration"),
	}, day))

	symbols, err := s.GetRecentSymbols(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, symbols, "ZZTEST")

	text, err := s.GetRecentSummaries(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, text, "ZZTEST Buy (77%): integration")
}
