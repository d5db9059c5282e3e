package s2_aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s0_quotes"
	"github.com/wonny/dailybrief/pkg/logger"
	"github.com/wonny/dailybrief/pkg/metrics"
)

// ErrNoRealQuote means the mandatory quote could not be resolved with real data
var ErrNoRealQuote = errors.New("no real-data quote")

// QuoteFetcher is the subset of the quote fetcher used here
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbols []string) (*s0_quotes.FetchResult, error)
}

// Sources are the best-effort providers merged into each record
type Sources struct {
	Verifiers    []contracts.QuoteProvider // 가격 교차 검증용 (첫 번째로 출처가 다른 provider)
	Fundamentals []contracts.FundamentalsProvider
	News         []contracts.NewsProvider
	Sentiment    []contracts.SentimentProvider
	Insider      []contracts.InsiderProvider
	Analyst      []contracts.AnalystProvider
}

// Bundle is the raw output of Gather, before merging
type Bundle struct {
	Symbol       string
	Range        contracts.DateRange
	Quote        contracts.Quote
	Verification *contracts.Quote
	Fundamentals *contracts.Fundamentals
	News         []contracts.NewsItem
	Sentiments   []*contracts.Sentiment
	Insider      []contracts.InsiderTransaction
	Analyst      *contracts.AnalystConsensus
	Warnings     []string // soft failures (provider errors/timeouts)
}

// Aggregator merges multi-provider data into one record per symbol
// ⭐ SSOT: 종목별 데이터 병합/교차 검증은 여기서만
type Aggregator struct {
	quotes      QuoteFetcher
	sources     Sources
	cfg         briefconfig.Aggregation
	callTimeout time.Duration
	now         func() time.Time
	metrics     *metrics.Recorder
	logger      *logger.Logger
}

// New creates an aggregator. callTimeout bounds every best-effort provider call.
func New(quotes QuoteFetcher, sources Sources, cfg briefconfig.Aggregation, callTimeout time.Duration, rec *metrics.Recorder, log *logger.Logger) *Aggregator {
	return &Aggregator{
		quotes:      quotes,
		sources:     sources,
		cfg:         cfg,
		callTimeout: callTimeout,
		now:         time.Now,
		metrics:     rec,
		logger:      log.WithField("module", "s2_aggregate"),
	}
}

// Aggregate gathers and merges one symbol. It fails only when the quote has no real data.
func (a *Aggregator) Aggregate(ctx context.Context, symbol string, r *contracts.DateRange) (*contracts.AggregatedRecord, error) {
	bundle, err := a.Gather(ctx, symbol, r)
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Warn("Aggregation failed")
		return nil, err
	}
	return Merge(bundle, a.cfg), nil
}

// Gather fetches the quote and every best-effort source in parallel
func (a *Aggregator) Gather(ctx context.Context, symbol string, r *contracts.DateRange) (*Bundle, error) {
	symbol = contracts.NormalizeSymbol(symbol)
	rng := contracts.LastDays(a.now(), a.cfg.DateRangeDays)
	if r != nil {
		rng = *r
	}

	var (
		wg sync.WaitGroup

		quote        contracts.Quote
		verification *contracts.Quote
		quoteErr     error
		quoteWarns   []string

		fundamentals *contracts.Fundamentals
		fundWarns    []string

		news      []contracts.NewsItem
		newsWarns []string

		sentiments []*contracts.Sentiment
		sentWarns  []string

		insider      []contracts.InsiderTransaction
		analyst      *contracts.AnalystConsensus
		secondWarns  []string
	)

	// 1. Quote (필수) + 교차 검증
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := a.quotes.Fetch(ctx, []string{symbol})
		if err != nil {
			quoteErr = fmt.Errorf("%w: %s: %w", ErrNoRealQuote, symbol, err)
			return
		}
		q, ok := res.Get(symbol)
		if !ok || !q.Usable() {
			quoteErr = fmt.Errorf("%w: %s", ErrNoRealQuote, symbol)
			return
		}
		quote = q
		verification, quoteWarns = a.verify(ctx, q)
	}()

	// 2. Fundamentals
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, p := range a.sources.Fundamentals {
			var f *contracts.Fundamentals
			err := a.call(ctx, p.Name(), func(ctx context.Context) error {
				var err error
				f, err = p.GetFundamentals(ctx, symbol)
				return err
			})
			if err != nil {
				fundWarns = append(fundWarns, softWarning(p.Name(), "fundamentals", err))
				continue
			}
			fundamentals = f
			return
		}
	}()

	// 3. News (모든 provider 병합)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, p := range a.sources.News {
			var items []contracts.NewsItem
			err := a.call(ctx, p.Name(), func(ctx context.Context) error {
				var err error
				items, err = p.GetNews(ctx, symbol, &rng)
				return err
			})
			if err != nil {
				newsWarns = append(newsWarns, softWarning(p.Name(), "news", err))
				continue
			}
			news = append(news, items...)
		}
	}()

	// 4. Sentiment
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, p := range a.sources.Sentiment {
			var s *contracts.Sentiment
			err := a.call(ctx, p.Name(), func(ctx context.Context) error {
				var err error
				s, err = p.GetSentiment(ctx, symbol)
				return err
			})
			if err != nil {
				sentWarns = append(sentWarns, softWarning(p.Name(), "sentiment", err))
				continue
			}
			sentiments = append(sentiments, s)
		}
	}()

	// 5. Insider + analyst (best-effort)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, p := range a.sources.Insider {
			var txs []contracts.InsiderTransaction
			err := a.call(ctx, p.Name(), func(ctx context.Context) error {
				var err error
				txs, err = p.GetInsiderActivity(ctx, symbol)
				return err
			})
			if err != nil {
				secondWarns = append(secondWarns, softWarning(p.Name(), "insider", err))
				continue
			}
			insider = txs
			break
		}
		for _, p := range a.sources.Analyst {
			var c *contracts.AnalystConsensus
			err := a.call(ctx, p.Name(), func(ctx context.Context) error {
				var err error
				c, err = p.GetAnalystConsensus(ctx, symbol)
				return err
			})
			if err != nil {
				secondWarns = append(secondWarns, softWarning(p.Name(), "analyst", err))
				continue
			}
			analyst = c
			break
		}
	}()

	wg.Wait()

	if quoteErr != nil {
		return nil, quoteErr
	}

	b := &Bundle{
		Symbol:       symbol,
		Range:        rng,
		Quote:        quote,
		Verification: verification,
		Fundamentals: fundamentals,
		News:         news,
		Sentiments:   sentiments,
		Insider:      insider,
		Analyst:      analyst,
	}
	for _, w := range [][]string{quoteWarns, fundWarns, newsWarns, sentWarns, secondWarns} {
		b.Warnings = append(b.Warnings, w...)
	}

	if len(b.Warnings) > 0 {
		a.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"warnings": len(b.Warnings),
		}).Debug("Gather degraded")
	}
	return b, nil
}

// verify fetches an independent quote from the first verifier with a different source
func (a *Aggregator) verify(ctx context.Context, primary contracts.Quote) (*contracts.Quote, []string) {
	var warns []string
	for _, p := range a.sources.Verifiers {
		if p.Name() == primary.Source {
			continue
		}

		var quotes []contracts.Quote
		err := a.call(ctx, p.Name(), func(ctx context.Context) error {
			var err error
			quotes, err = p.FetchQuotes(ctx, []string{primary.Symbol})
			return err
		})
		if err != nil {
			warns = append(warns, softWarning(p.Name(), "verification quote", err))
			continue
		}
		for _, q := range quotes {
			if contracts.NormalizeSymbol(q.Symbol) == primary.Symbol && q.Usable() {
				if q.Source == "" {
					q.Source = p.Name()
				}
				return &q, warns
			}
		}
		warns = append(warns, softWarning(p.Name(), "verification quote", contracts.ErrMiss))
	}
	return nil, warns
}

// call runs one best-effort provider call under the per-call timeout
func (a *Aggregator) call(ctx context.Context, provider string, fn func(ctx context.Context) error) error {
	if a.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.callTimeout)
		defer cancel()
	}

	err := fn(ctx)
	switch {
	case err == nil:
		a.metrics.ProviderRequest(provider, "hit")
	case errors.Is(err, contracts.ErrMiss):
		a.metrics.ProviderRequest(provider, "miss")
	default:
		a.metrics.ProviderRequest(provider, "error")
	}
	return err
}

func softWarning(provider, what string, err error) string {
	if errors.Is(err, contracts.ErrMiss) {
		return fmt.Sprintf("%s: no %s data", provider, what)
	}
	return fmt.Sprintf("%s: %s unavailable: %v", provider, what, err)
}

// Merge combines a bundle using the aggregator's configuration
func (a *Aggregator) Merge(b *Bundle) *contracts.AggregatedRecord {
	return Merge(b, a.cfg)
}
