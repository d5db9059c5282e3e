package s2_aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s0_quotes"
	"github.com/wonny/dailybrief/pkg/logger"
)

var now = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

type quoteSource struct {
	name   string
	prices map[string]float64
	err    error
	delay  time.Duration
}

func (q *quoteSource) Name() string { return q.name }

func (q *quoteSource) FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error) {
	if q.delay > 0 {
		select {
		case <-time.After(q.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if q.err != nil {
		return nil, q.err
	}
	var out []contracts.Quote
	for _, s := range symbols {
		if p, ok := q.prices[s]; ok {
			out = append(out, contracts.Quote{Symbol: s, Price: p, Volume: 1, IsRealData: true, Source: q.name})
		}
	}
	return out, nil
}

type dataSource struct {
	name         string
	fundamentals *contracts.Fundamentals
	news         []contracts.NewsItem
	sentiment    *contracts.Sentiment
	insider      []contracts.InsiderTransaction
	analyst      *contracts.AnalystConsensus
	err          error
}

func (d *dataSource) Name() string { return d.name }

func (d *dataSource) GetFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.fundamentals == nil {
		return nil, contracts.ErrMiss
	}
	return d.fundamentals, nil
}

func (d *dataSource) GetNews(ctx context.Context, symbol string, r *contracts.DateRange) ([]contracts.NewsItem, error) {
	return d.news, d.err
}

func (d *dataSource) GetSentiment(ctx context.Context, symbol string) (*contracts.Sentiment, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.sentiment == nil {
		return nil, contracts.ErrMiss
	}
	return d.sentiment, nil
}

func (d *dataSource) GetInsiderActivity(ctx context.Context, symbol string) ([]contracts.InsiderTransaction, error) {
	return d.insider, d.err
}

func (d *dataSource) GetAnalystConsensus(ctx context.Context, symbol string) (*contracts.AnalystConsensus, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.analyst, nil
}

func newsItems(n int, source string) []contracts.NewsItem {
	items := make([]contracts.NewsItem, n)
	for i := range items {
		items[i] = contracts.NewsItem{
			Headline:    fmt.Sprintf("Headline %d", i),
			Source:      source,
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
		}
	}
	return items
}

func newAggregator(primary, verifier *quoteSource, sources Sources) *Aggregator {
	fetcher := s0_quotes.New([]contracts.QuoteProvider{primary}, s0_quotes.Policy{}, nil, logger.NewNop())
	if verifier != nil {
		sources.Verifiers = append([]contracts.QuoteProvider{primary, verifier}, sources.Verifiers...)
	}
	a := New(fetcher, sources, briefconfig.Default().Aggregation, 50*time.Millisecond, nil, logger.NewNop())
	a.now = func() time.Time { return now }
	return a
}

func TestAggregate_PriceWithinTolerance(t *testing.T) {
	a := newAggregator(
		&quoteSource{name: "yahoo", prices: map[string]float64{"X": 100.00}},
		&quoteSource{name: "finnhub", prices: map[string]float64{"X": 101.50}},
		Sources{},
	)

	rec, err := a.Aggregate(context.Background(), "X", nil)

	require.NoError(t, err)
	assert.True(t, rec.Quality.PriceVerified)
	assert.Equal(t, 30, rec.Quality.OverallScore)
}

func TestAggregate_PriceDiscrepancyWarnsButReturns(t *testing.T) {
	a := newAggregator(
		&quoteSource{name: "yahoo", prices: map[string]float64{"X": 100.00}},
		&quoteSource{name: "finnhub", prices: map[string]float64{"X": 110.00}},
		Sources{},
	)

	rec, err := a.Aggregate(context.Background(), "X", nil)

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Quality.PriceVerified)
	assert.Equal(t, 100.00, rec.Quote.Price, "primary price is kept")
	assert.Contains(t, rec.Quality.Warnings, "price discrepancy: yahoo 100.00 vs finnhub 110.00 (10.00%)")
}

func TestAggregate_NoRealQuoteFails(t *testing.T) {
	a := newAggregator(&quoteSource{name: "yahoo"}, nil, Sources{})

	rec, err := a.Aggregate(context.Background(), "X", nil)

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNoRealQuote)
	assert.ErrorIs(t, err, s0_quotes.ErrUnresolved)
}

func TestAggregate_SoftFailuresDegrade(t *testing.T) {
	broken := &dataSource{name: "finnhub", err: errors.New("502 bad gateway")}
	a := newAggregator(
		&quoteSource{name: "yahoo", prices: map[string]float64{"X": 50}},
		nil,
		Sources{
			Fundamentals: []contracts.FundamentalsProvider{broken},
			News:         []contracts.NewsProvider{broken},
			Sentiment:    []contracts.SentimentProvider{broken},
			Insider:      []contracts.InsiderProvider{broken},
			Analyst:      []contracts.AnalystProvider{broken},
		},
	)

	rec, err := a.Aggregate(context.Background(), "X", nil)

	require.NoError(t, err)
	assert.Nil(t, rec.Fundamentals)
	assert.Empty(t, rec.News)
	assert.Nil(t, rec.Sentiment)
	assert.Nil(t, rec.Insider)
	assert.Nil(t, rec.Analyst)
	assert.Equal(t, 0, rec.Quality.OverallScore)
	assert.GreaterOrEqual(t, len(rec.Quality.Warnings), 5)
}

func TestAggregate_FullRecord(t *testing.T) {
	finnhub := &dataSource{
		name:         "finnhub",
		fundamentals: &contracts.Fundamentals{Symbol: "X", PE: 22.5, EPS: 4},
		news:         newsItems(4, "finnhub"),
		sentiment:    &contracts.Sentiment{Score: 0.4, Mentions: 25, Source: "finnhub"},
		insider: []contracts.InsiderTransaction{
			{Name: "CEO", Shares: 1000},
			{Name: "CFO", Shares: -300},
		},
		analyst: &contracts.AnalystConsensus{Buy: 10, Hold: 2},
	}
	finviz := &dataSource{name: "finviz", news: newsItems(2, "finviz")}

	a := newAggregator(
		&quoteSource{name: "yahoo", prices: map[string]float64{"X": 100}},
		&quoteSource{name: "finnhub", prices: map[string]float64{"X": 100.5}},
		Sources{
			Fundamentals: []contracts.FundamentalsProvider{finnhub},
			News:         []contracts.NewsProvider{finnhub, finviz},
			Sentiment:    []contracts.SentimentProvider{finnhub},
			Insider:      []contracts.InsiderProvider{finnhub},
			Analyst:      []contracts.AnalystProvider{finnhub},
		},
	)

	rec, err := a.Aggregate(context.Background(), "x", nil)

	require.NoError(t, err)
	assert.Equal(t, "X", rec.Symbol)
	assert.Len(t, rec.News, 4, "duplicate headlines across providers collapse")
	assert.Equal(t, 100, rec.Quality.OverallScore)
	assert.True(t, rec.Quality.FundamentalsComplete)
	assert.True(t, rec.Quality.NewsAvailable)
	assert.True(t, rec.Quality.SocialDataAvailable)
	require.NotNil(t, rec.Insider)
	assert.Equal(t, 1, rec.Insider.Buys)
	assert.Equal(t, int64(700), rec.Insider.NetShares)
	assert.Equal(t, "Buy", rec.Analyst.Rating())
}

func TestAggregate_VerifierTimeoutIsSoft(t *testing.T) {
	a := newAggregator(
		&quoteSource{name: "yahoo", prices: map[string]float64{"X": 100}},
		&quoteSource{name: "finnhub", prices: map[string]float64{"X": 100}, delay: time.Second},
		Sources{},
	)

	start := time.Now()
	rec, err := a.Aggregate(context.Background(), "X", nil)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, rec.Quality.PriceVerified)
}
