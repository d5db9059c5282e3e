package finnhub

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/dailybrief/internal/contracts"
)

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// FetchQuotes fetches one /quote per symbol. Finnhub returns c=0 for unknown
// tickers, which is a miss. The endpoint carries no volume.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error) {
	quotes := make([]contracts.Quote, 0, len(symbols))
	var lastErr error

	for _, symbol := range symbols {
		var r quoteResponse
		if err := c.get(ctx, "/quote", map[string]string{"symbol": symbol}, &r); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if r.Current <= 0 {
			continue
		}

		ts := c.now()
		if r.Timestamp > 0 {
			ts = time.Unix(r.Timestamp, 0)
		}
		quotes = append(quotes, contracts.Quote{
			Symbol:        symbol,
			Price:         r.Current,
			Change:        r.Change,
			ChangePercent: r.ChangePercent,
			Timestamp:     ts,
			Source:        Name,
			IsRealData:    true,
		})
	}

	if len(quotes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return quotes, nil
}

type metricResponse struct {
	Metric struct {
		PETTM             float64 `json:"peTTM"`
		PEBasicExclExtra  float64 `json:"peBasicExclExtraTTM"`
		EPSTTM            float64 `json:"epsTTM"`
		MarketCapMillions float64 `json:"marketCapitalization"`
		Beta              float64 `json:"beta"`
		DividendYield     float64 `json:"dividendYieldIndicatedAnnual"`
		High52            float64 `json:"52WeekHigh"`
		Low52             float64 `json:"52WeekLow"`
	} `json:"metric"`
}

// GetFundamentals fetches basic financials from /stock/metric
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	var r metricResponse
	if err := c.get(ctx, "/stock/metric", map[string]string{"symbol": symbol, "metric": "all"}, &r); err != nil {
		return nil, err
	}

	m := r.Metric
	if m.PETTM == 0 && m.PEBasicExclExtra == 0 && m.EPSTTM == 0 && m.MarketCapMillions == 0 {
		return nil, fmt.Errorf("finnhub fundamentals %s: %w", symbol, contracts.ErrMiss)
	}

	pe := m.PETTM
	if pe == 0 {
		pe = m.PEBasicExclExtra
	}
	return &contracts.Fundamentals{
		Symbol:           symbol,
		PE:               pe,
		EPS:              m.EPSTTM,
		MarketCap:        m.MarketCapMillions * 1e6,
		DividendYield:    m.DividendYield,
		Beta:             m.Beta,
		FiftyTwoWeekHigh: m.High52,
		FiftyTwoWeekLow:  m.Low52,
		Source:           Name,
	}, nil
}
