package yahoo

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/piquette/finance-go/quote"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/pkg/logger"
)

// Name is the provider name used in policies and quote provenance
const Name = "yahoo"

// Client wraps finance-go. The library is blocking and context-free, so every
// call runs in a goroutine raced against ctx.
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	listQuotes func(symbols []string) ([]*finance.Quote, error)
	getEquity  func(symbol string) (*finance.Equity, error)
	now        func() time.Time
	logger     *logger.Logger
}

// New creates a Yahoo Finance client
func New(log *logger.Logger) *Client {
	return &Client{
		listQuotes: listQuotes,
		getEquity:  equity.Get,
		now:        time.Now,
		logger:     log.WithField("module", "yahoo"),
	}
}

// Name implements contracts.Provider
func (c *Client) Name() string {
	return Name
}

func listQuotes(symbols []string) ([]*finance.Quote, error) {
	iter := quote.List(symbols)
	var out []*finance.Quote
	for iter.Next() {
		out = append(out, iter.Quote())
	}
	return out, iter.Err()
}

// FetchQuotes fetches the batch in one request. Entries without a positive
// regular market price are dropped.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error) {
	raw, err := withContext(ctx, func() ([]*finance.Quote, error) {
		return c.listQuotes(symbols)
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo quotes: %w", err)
	}

	quotes := make([]contracts.Quote, 0, len(raw))
	for _, q := range raw {
		if q == nil || q.RegularMarketPrice <= 0 {
			continue
		}
		ts := c.now()
		if q.RegularMarketTime > 0 {
			ts = time.Unix(int64(q.RegularMarketTime), 0)
		}
		quotes = append(quotes, contracts.Quote{
			Symbol:        q.Symbol,
			Price:         q.RegularMarketPrice,
			Change:        q.RegularMarketChange,
			ChangePercent: q.RegularMarketChangePercent,
			Volume:        int64(q.RegularMarketVolume),
			Timestamp:     ts,
			Source:        Name,
			IsRealData:    true,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"received":  len(quotes),
	}).Debug("Fetched Yahoo quotes")
	return quotes, nil
}

// GetFundamentals reads valuation fields from the equity quote
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	eq, err := withContext(ctx, func() (*finance.Equity, error) {
		return c.getEquity(symbol)
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo fundamentals %s: %w", symbol, err)
	}
	if eq == nil {
		return nil, fmt.Errorf("yahoo fundamentals %s: %w", symbol, contracts.ErrMiss)
	}

	name := eq.LongName
	if name == "" {
		name = eq.ShortName
	}
	return &contracts.Fundamentals{
		Symbol:           symbol,
		CompanyName:      name,
		PE:               eq.TrailingPE,
		EPS:              eq.EpsTrailingTwelveMonths,
		MarketCap:        float64(eq.MarketCap),
		DividendYield:    eq.TrailingAnnualDividendYield * 100,
		FiftyTwoWeekHigh: eq.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  eq.FiftyTwoWeekLow,
		Source:           Name,
	}, nil
}

// withContext runs fn and returns early if ctx ends first. The goroutine is
// left to finish on its own; finance-go has its own HTTP timeout.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
