package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/pkg/logger"
)

func TestFetchQuotes(t *testing.T) {
	c := New(logger.NewNop())
	c.listQuotes = func(symbols []string) ([]*finance.Quote, error) {
		assert.Equal(t, []string{"AAPL", "MSFT", "DEAD"}, symbols)
		return []*finance.Quote{
			{Symbol: "AAPL", RegularMarketPrice: 187.5, RegularMarketChangePercent: 1.2, RegularMarketVolume: 50_000_000, RegularMarketTime: 1773144000},
			{Symbol: "DEAD", RegularMarketPrice: 0},
			nil,
		}, nil
	}

	quotes, err := c.FetchQuotes(context.Background(), []string{"AAPL", "MSFT", "DEAD"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, int64(50_000_000), q.Volume)
	assert.Equal(t, Name, q.Source)
	assert.True(t, q.Usable())
	assert.Equal(t, int64(1773144000), q.Timestamp.Unix())
}

func TestFetchQuotesError(t *testing.T) {
	c := New(logger.NewNop())
	c.listQuotes = func([]string) ([]*finance.Quote, error) {
		return nil, errors.New("remote error")
	}

	_, err := c.FetchQuotes(context.Background(), []string{"AAPL"})
	assert.Error(t, err)
}

func TestFetchQuotesContextCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := New(logger.NewNop())
	c.listQuotes = func([]string) ([]*finance.Quote, error) {
		<-release
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchQuotes(ctx, []string{"AAPL"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetFundamentals(t *testing.T) {
	c := New(logger.NewNop())
	c.getEquity = func(symbol string) (*finance.Equity, error) {
		if symbol != "AAPL" {
			return nil, nil
		}
		eq := &finance.Equity{
			LongName:                    "Apple Inc.",
			TrailingPE:                  29.1,
			EpsTrailingTwelveMonths:     6.4,
			MarketCap:                   2_900_000_000_000,
			TrailingAnnualDividendYield: 0.0052,
		}
		eq.Symbol = "AAPL"
		eq.FiftyTwoWeekHigh = 199.6
		return eq, nil
	}

	f, err := c.GetFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", f.CompanyName)
	assert.Equal(t, 29.1, f.PE)
	assert.Equal(t, 2.9e12, f.MarketCap)
	assert.InDelta(t, 0.52, f.DividendYield, 1e-9)
	assert.Equal(t, 199.6, f.FiftyTwoWeekHigh)

	_, err = c.GetFundamentals(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, contracts.ErrMiss)
}
