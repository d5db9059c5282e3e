package finnhub

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/dailybrief/internal/contracts"
)

type newsResponse struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// GetNews fetches company news; a nil range means the last 7 days
func (c *Client) GetNews(ctx context.Context, symbol string, r *contracts.DateRange) ([]contracts.NewsItem, error) {
	rng := contracts.LastDays(c.now(), 7)
	if r != nil {
		rng = *r
	}

	var raw []newsResponse
	err := c.get(ctx, "/company-news", map[string]string{
		"symbol": symbol,
		"from":   dateParam(rng.From),
		"to":     dateParam(rng.To),
	}, &raw)
	if err != nil {
		return nil, err
	}

	items := make([]contracts.NewsItem, 0, len(raw))
	for _, n := range raw {
		if n.Headline == "" {
			continue
		}
		items = append(items, contracts.NewsItem{
			Headline:    n.Headline,
			Summary:     n.Summary,
			URL:         n.URL,
			Source:      fmt.Sprintf("%s/%s", Name, n.Source),
			PublishedAt: time.Unix(n.DateTime, 0).UTC(),
		})
	}
	return items, nil
}

type socialPoint struct {
	AtTime  string  `json:"atTime"`
	Mention int     `json:"mention"`
	Score   float64 `json:"score"`
}

type socialResponse struct {
	Symbol  string        `json:"symbol"`
	Reddit  []socialPoint `json:"reddit"`
	Twitter []socialPoint `json:"twitter"`
}

// GetSentiment aggregates /stock/social-sentiment over the last 7 days.
// Scores are mention-weighted; no mentions is a miss.
func (c *Client) GetSentiment(ctx context.Context, symbol string) (*contracts.Sentiment, error) {
	rng := contracts.LastDays(c.now(), 7)

	var r socialResponse
	err := c.get(ctx, "/stock/social-sentiment", map[string]string{
		"symbol": symbol,
		"from":   dateParam(rng.From),
		"to":     dateParam(rng.To),
	}, &r)
	if err != nil {
		return nil, err
	}

	var mentions int
	var weighted float64
	for _, series := range [][]socialPoint{r.Reddit, r.Twitter} {
		for _, p := range series {
			mentions += p.Mention
			weighted += p.Score * float64(p.Mention)
		}
	}
	if mentions == 0 {
		return nil, fmt.Errorf("finnhub sentiment %s: %w", symbol, contracts.ErrMiss)
	}

	return &contracts.Sentiment{
		Symbol:   symbol,
		Score:    weighted / float64(mentions),
		Mentions: mentions,
		Source:   Name,
	}, nil
}
