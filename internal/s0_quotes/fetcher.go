package s0_quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/pkg/logger"
	"github.com/wonny/dailybrief/pkg/metrics"
)

// ErrUnresolved is matched by every UnresolvedError
var ErrUnresolved = errors.New("quotes unresolved")

// UnresolvedError lists symbols no provider could resolve with real data
type UnresolvedError struct {
	Symbols []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("no real quote for %d symbol(s): %s", len(e.Symbols), strings.Join(e.Symbols, ","))
}

// Is makes errors.Is(err, ErrUnresolved) work
func (e *UnresolvedError) Is(target error) bool {
	return target == ErrUnresolved
}

// Policy controls provider order and per-provider batch caps
type Policy struct {
	Order       []string       // provider names, highest priority first (empty → registration order)
	MaxBatch    map[string]int // cap on residual symbols sent to a secondary provider (0 → no cap)
	CallTimeout time.Duration  // per provider call (0 → caller's context only)
}

// Quality summarizes a fetch
type Quality struct {
	Total         int      `json:"total"`
	Successful    int      `json:"successful"`
	Failed        int      `json:"failed"`
	SourcesUsed   []string `json:"sources_used"`
	FailedSymbols []string `json:"failed_symbols"`
	SuccessRate   float64  `json:"success_rate"` // 0.0 ~ 1.0
}

// FetchResult holds resolved quotes in request order
type FetchResult struct {
	Quotes  []contracts.Quote `json:"quotes"`
	Quality Quality           `json:"quality"`
}

// Get returns the quote for symbol
func (r *FetchResult) Get(symbol string) (contracts.Quote, bool) {
	if r == nil {
		return contracts.Quote{}, false
	}
	symbol = contracts.NormalizeSymbol(symbol)
	for _, q := range r.Quotes {
		if q.Symbol == symbol {
			return q, true
		}
	}
	return contracts.Quote{}, false
}

// Fetcher resolves quotes across a prioritized provider list
// ⭐ SSOT: 시세 조회 fallback 정책은 여기서만
type Fetcher struct {
	providers []contracts.QuoteProvider
	policy    Policy
	metrics   *metrics.Recorder
	logger    *logger.Logger
}

// New creates a Fetcher. Providers not named in a non-empty policy.Order are not used.
func New(providers []contracts.QuoteProvider, policy Policy, rec *metrics.Recorder, log *logger.Logger) *Fetcher {
	return &Fetcher{
		providers: orderProviders(providers, policy.Order),
		policy:    policy,
		metrics:   rec,
		logger:    log.WithField("module", "s0_quotes"),
	}
}

// Providers returns provider names in the order they are tried
func (f *Fetcher) Providers() []string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return names
}

// Fetch resolves every symbol or returns the partial result with an *UnresolvedError.
// Each provider only sees symbols still unresolved after the providers before it.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string) (*FetchResult, error) {
	requested := contracts.UniqueSymbols(symbols)
	result := &FetchResult{
		Quotes:  []contracts.Quote{},
		Quality: Quality{Total: len(requested), SourcesUsed: []string{}, FailedSymbols: []string{}},
	}
	if len(requested) == 0 {
		return result, nil
	}

	resolved := make(map[string]contracts.Quote, len(requested))
	pending := make([]string, 0, len(requested))
	for _, s := range requested {
		if contracts.ValidSymbol(s) {
			pending = append(pending, s)
		}
	}

	for i, p := range f.providers {
		if len(pending) == 0 {
			break
		}

		batch := pending
		if i > 0 {
			if max := f.policy.MaxBatch[p.Name()]; max > 0 && len(batch) > max {
				batch = batch[:max]
			}
			f.metrics.QuoteFallback(p.Name(), len(batch))
		}

		hits, err := f.fetchFrom(ctx, p, batch, resolved)
		if err != nil {
			f.metrics.ProviderRequest(p.Name(), "error")
			f.logger.WithError(err).WithFields(map[string]interface{}{
				"provider": p.Name(),
				"symbols":  len(batch),
			}).Warn("Quote provider failed, falling back")
		} else if hits == 0 {
			f.metrics.ProviderRequest(p.Name(), "miss")
		} else {
			f.metrics.ProviderRequest(p.Name(), "hit")
			result.Quality.SourcesUsed = append(result.Quality.SourcesUsed, p.Name())
		}

		pending = unresolved(pending, resolved)
	}

	for _, s := range requested {
		if q, ok := resolved[s]; ok {
			result.Quotes = append(result.Quotes, q)
		} else {
			result.Quality.FailedSymbols = append(result.Quality.FailedSymbols, s)
		}
	}
	result.Quality.Successful = len(result.Quotes)
	result.Quality.Failed = len(result.Quality.FailedSymbols)
	result.Quality.SuccessRate = float64(result.Quality.Successful) / float64(result.Quality.Total)

	f.logger.WithFields(map[string]interface{}{
		"total":      result.Quality.Total,
		"successful": result.Quality.Successful,
		"failed":     result.Quality.Failed,
		"sources":    result.Quality.SourcesUsed,
	}).Debug("Quote fetch completed")

	if result.Quality.Failed > 0 {
		return result, &UnresolvedError{Symbols: result.Quality.FailedSymbols}
	}
	return result, nil
}

// fetchFrom calls one provider and records accepted quotes into resolved
func (f *Fetcher) fetchFrom(ctx context.Context, p contracts.QuoteProvider, batch []string, resolved map[string]contracts.Quote) (int, error) {
	callCtx := ctx
	if f.policy.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.policy.CallTimeout)
		defer cancel()
	}

	quotes, err := p.FetchQuotes(callCtx, batch)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", p.Name(), err)
	}

	wanted := make(map[string]bool, len(batch))
	for _, s := range batch {
		wanted[s] = true
	}

	hits := 0
	for _, q := range quotes {
		q.Symbol = contracts.NormalizeSymbol(q.Symbol)
		if !wanted[q.Symbol] || !q.Usable() {
			continue
		}
		if _, done := resolved[q.Symbol]; done {
			continue
		}
		if q.Source == "" {
			q.Source = p.Name()
		}
		resolved[q.Symbol] = q
		hits++
	}
	return hits, nil
}

func unresolved(symbols []string, resolved map[string]contracts.Quote) []string {
	out := symbols[:0:0]
	for _, s := range symbols {
		if _, ok := resolved[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func orderProviders(providers []contracts.QuoteProvider, order []string) []contracts.QuoteProvider {
	if len(order) == 0 {
		return providers
	}

	byName := make(map[string]contracts.QuoteProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	out := make([]contracts.QuoteProvider, 0, len(order))
	for _, name := range order {
		if p, ok := byName[name]; ok {
			out = append(out, p)
			delete(byName, name)
		}
	}
	return out
}
