package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrMiss means a provider had no data for the request.
// Distinct from transport errors, though callers treat both as a miss.
var ErrMiss = errors.New("provider miss")

// Provider is any named external data source
type Provider interface {
	Name() string
}

// QuoteProvider fetches quotes in batches
// ⭐ SSOT: 실데이터 확인된 시세만 IsRealData=true 로 반환
type QuoteProvider interface {
	Provider
	FetchQuotes(ctx context.Context, symbols []string) ([]Quote, error)
}

// FundamentalsProvider fetches valuation data
type FundamentalsProvider interface {
	Provider
	GetFundamentals(ctx context.Context, symbol string) (*Fundamentals, error)
}

// NewsProvider fetches headlines, optionally bounded by a date range
type NewsProvider interface {
	Provider
	GetNews(ctx context.Context, symbol string, r *DateRange) ([]NewsItem, error)
}

// SentimentProvider fetches social sentiment
type SentimentProvider interface {
	Provider
	GetSentiment(ctx context.Context, symbol string) (*Sentiment, error)
}

// InsiderProvider fetches insider transactions
type InsiderProvider interface {
	Provider
	GetInsiderActivity(ctx context.Context, symbol string) ([]InsiderTransaction, error)
}

// AnalystProvider fetches analyst consensus
type AnalystProvider interface {
	Provider
	GetAnalystConsensus(ctx context.Context, symbol string) (*AnalystConsensus, error)
}

// Model is the generative model: prompt in, text out. Output is untrusted.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HistoryStore is the read-only historical context lookup
type HistoryStore interface {
	GetRecentSymbols(ctx context.Context, windowDays int) ([]string, error)
	GetRecentSummaries(ctx context.Context, windowDays int) (string, error)
}

// Publisher hands validated records to the delivery side
type Publisher interface {
	Publish(ctx context.Context, records []ValidatedRecord, date time.Time) error
}
