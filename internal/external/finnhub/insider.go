package finnhub

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/dailybrief/internal/contracts"
)

type insiderResponse struct {
	Data []struct {
		Name             string  `json:"name"`
		Share            int64   `json:"share"`
		Change           int64   `json:"change"`
		TransactionDate  string  `json:"transactionDate"`
		TransactionCode  string  `json:"transactionCode"`
		TransactionPrice float64 `json:"transactionPrice"`
	} `json:"data"`
}

// GetInsiderActivity fetches insider transactions from the last 90 days
func (c *Client) GetInsiderActivity(ctx context.Context, symbol string) ([]contracts.InsiderTransaction, error) {
	now := c.now()

	var r insiderResponse
	err := c.get(ctx, "/stock/insider-transactions", map[string]string{
		"symbol": symbol,
		"from":   dateParam(now.AddDate(0, 0, -90)),
		"to":     dateParam(now),
	}, &r)
	if err != nil {
		return nil, err
	}

	txs := make([]contracts.InsiderTransaction, 0, len(r.Data))
	for _, d := range r.Data {
		date, _ := time.Parse("2006-01-02", d.TransactionDate)
		txs = append(txs, contracts.InsiderTransaction{
			Name:            d.Name,
			Shares:          d.Change,
			Price:           d.TransactionPrice,
			TransactionDate: date,
			Code:            d.TransactionCode,
		})
	}
	return txs, nil
}

type recommendationResponse struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// GetAnalystConsensus returns the most recent recommendation period
func (c *Client) GetAnalystConsensus(ctx context.Context, symbol string) (*contracts.AnalystConsensus, error) {
	var r []recommendationResponse
	if err := c.get(ctx, "/stock/recommendation", map[string]string{"symbol": symbol}, &r); err != nil {
		return nil, err
	}
	if len(r) == 0 {
		return nil, fmt.Errorf("finnhub recommendation %s: %w", symbol, contracts.ErrMiss)
	}

	// Finnhub 는 최신 기간을 먼저 반환
	latest := r[0]
	return &contracts.AnalystConsensus{
		Period:     latest.Period,
		StrongBuy:  latest.StrongBuy,
		Buy:        latest.Buy,
		Hold:       latest.Hold,
		Sell:       latest.Sell,
		StrongSell: latest.StrongSell,
		Source:     Name,
	}, nil
}
