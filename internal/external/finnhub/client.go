package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/wonny/dailybrief/pkg/config"
	"github.com/wonny/dailybrief/pkg/logger"
)

// Name is the provider name used in policies and quote provenance
const Name = "finnhub"

// ErrNoAPIKey is returned by every call when no key is configured
var ErrNoAPIKey = errors.New("finnhub API key not configured")

// APIError is a non-200 response
type APIError struct {
	StatusCode int
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("finnhub %s: status %d", e.Endpoint, e.StatusCode)
}

// RateLimited reports whether the call hit the API quota
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client handles communication with the Finnhub REST API
// ⭐ SSOT: Finnhub API 호출은 이 클라이언트에서만
type Client struct {
	client  *resty.Client
	apiKey  string
	limiter *rate.Limiter
	now     func() time.Time
	logger  *logger.Logger
}

// New creates a Finnhub client. Requests are paced at cfg.RequestsPerSecond.
func New(cfg config.FinnhubConfig, timeout time.Duration, log *logger.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		client:  client,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		logger:  log.WithField("module", "finnhub"),
	}
}

// Name implements contracts.Provider
func (c *Client) Name() string {
	return Name
}

// get performs one paced GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out interface{}) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("finnhub %s: rate limiter: %w", endpoint, err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("token", c.apiKey).
		Get(endpoint)
	if err != nil {
		return fmt.Errorf("finnhub %s: %w", endpoint, err)
	}

	if resp.StatusCode() != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Endpoint: endpoint}
		c.logger.WithFields(map[string]interface{}{
			"endpoint": endpoint,
			"status":   resp.StatusCode(),
		}).Debug("Finnhub request failed")
		return apiErr
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("finnhub %s: decode response: %w", endpoint, err)
	}
	return nil
}

func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}
