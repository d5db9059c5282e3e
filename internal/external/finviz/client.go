package finviz

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/dailybrief/pkg/httputil"
	"github.com/wonny/dailybrief/pkg/logger"
)

// Name is the provider name used in provenance
const Name = "finviz"

// Client scrapes the Finviz quote page
// ⭐ SSOT: Finviz 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new Finviz client. The http client should carry a
// browser User-Agent; Finviz rejects the Go default.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "finviz"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// Name implements contracts.Provider
func (c *Client) Name() string {
	return Name
}

// fetchQuotePage fetches and parses quote.ashx for one symbol
func (c *Client) fetchQuotePage(ctx context.Context, symbol string) (*goquery.Document, error) {
	params := url.Values{}
	params.Set("t", symbol)
	fullURL := fmt.Sprintf("%s/quote.ashx?%s", c.baseURL, params.Encode())

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("finviz %s: %w", symbol, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("finviz %s: parse html: %w", symbol, err)
	}
	return doc, nil
}
