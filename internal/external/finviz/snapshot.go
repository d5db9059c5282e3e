package finviz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/dailybrief/internal/contracts"
)

// GetFundamentals reads the snapshot table (label/value cell pairs) and the
// sector link above it.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	doc, err := c.fetchQuotePage(ctx, symbol)
	if err != nil {
		return nil, err
	}

	f := parseSnapshot(doc, symbol)
	if f == nil {
		return nil, fmt.Errorf("finviz fundamentals %s: %w", symbol, contracts.ErrMiss)
	}
	return f, nil
}

func parseSnapshot(doc *goquery.Document, symbol string) *contracts.Fundamentals {
	values := make(map[string]string)
	cells := doc.Find("table.snapshot-table2 td")
	for i := 0; i+1 < cells.Length(); i += 2 {
		label := strings.TrimSpace(cells.Eq(i).Text())
		values[label] = strings.TrimSpace(cells.Eq(i + 1).Text())
	}
	if len(values) == 0 {
		return nil
	}

	f := &contracts.Fundamentals{
		Symbol:        symbol,
		CompanyName:   strings.TrimSpace(doc.Find("h2.quote-header_ticker-wrapper_company").First().Text()),
		Sector:        strings.TrimSpace(doc.Find("div.quote-links a").First().Text()),
		PE:            parseNumber(values["P/E"]),
		EPS:           parseNumber(values["EPS (ttm)"]),
		MarketCap:     parseNumber(values["Market Cap"]),
		DividendYield: parseNumber(values["Dividend %"]),
		Beta:          parseNumber(values["Beta"]),
		Source:        Name,
	}
	return f
}

// parseNumber handles "29.10", "2.90T", "0.52%", "1,234" and "-"
func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return 0
	}
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'T':
		mult = 1e12
	case 'B':
		mult = 1e9
	case 'M':
		mult = 1e6
	case 'K':
		mult = 1e3
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n * mult
}
