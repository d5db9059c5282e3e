package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/pkg/config"
	"github.com/wonny/dailybrief/pkg/logger"
)

// Name is the provider name used in provenance
const Name = "reddit"

// Client reads the public Reddit search JSON
// ⭐ SSOT: Reddit 호출은 이 클라이언트에서만
type Client struct {
	client     *resty.Client
	subreddits []string
	logger     *logger.Logger
}

// New creates a Reddit client. Reddit throttles requests without a
// descriptive User-Agent.
func New(cfg config.RedditConfig, timeout time.Duration, log *logger.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	return &Client{
		client:     client,
		subreddits: cfg.Subreddits,
		logger:     log.WithField("module", "reddit"),
	}
}

// Name implements contracts.Provider
func (c *Client) Name() string {
	return Name
}

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	Score       int     `json:"score"`
	CreatedUTC  float64 `json:"created_utc"`
}

// GetSentiment searches the configured subreddits for the past week. Each post
// mentioning the ticker counts once; the score maps the mean upvote ratio from
// [0,1] onto [-1,1]. No matching post is a miss.
func (c *Client) GetSentiment(ctx context.Context, symbol string) (*contracts.Sentiment, error) {
	mention := mentionPattern(symbol)

	var mentions int
	var ratioSum float64
	var lastErr error
	searched := 0

	for _, sub := range c.subreddits {
		posts, err := c.search(ctx, sub, symbol)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		searched++

		for _, p := range posts {
			if !mention.MatchString(p.Title) && !mention.MatchString(p.SelfText) {
				continue
			}
			mentions++
			ratioSum += p.UpvoteRatio
		}
	}

	if searched == 0 && lastErr != nil {
		return nil, lastErr
	}
	if mentions == 0 {
		return nil, fmt.Errorf("reddit %s: %w", symbol, contracts.ErrMiss)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"mentions": mentions,
	}).Debug("Reddit sentiment")

	return &contracts.Sentiment{
		Symbol:   symbol,
		Score:    ratioSum/float64(mentions)*2 - 1,
		Mentions: mentions,
		Source:   Name,
	}, nil
}

func (c *Client) search(ctx context.Context, sub, symbol string) ([]post, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("sub", sub).
		SetQueryParams(map[string]string{
			"q":           symbol,
			"restrict_sr": "1",
			"sort":        "new",
			"t":           "week",
			"limit":       "100",
		}).
		Get("/r/{sub}/search.json")
	if err != nil {
		return nil, fmt.Errorf("reddit r/%s: %w", sub, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("reddit r/%s: status %d", sub, resp.StatusCode())
	}

	var l listing
	if err := json.Unmarshal(resp.Body(), &l); err != nil {
		return nil, fmt.Errorf("reddit r/%s: decode: %w", sub, err)
	}

	posts := make([]post, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		posts = append(posts, ch.Data)
	}
	return posts, nil
}

// mentionPattern matches "$SYM" or SYM as a whole word, case-sensitive so
// tickers like "A" or "ALL" do not match ordinary prose.
func mentionPattern(symbol string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^A-Za-z0-9])\$?` + regexp.QuoteMeta(symbol) + `($|[^A-Za-z0-9])`)
}
