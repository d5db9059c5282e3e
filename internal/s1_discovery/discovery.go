package s1_discovery

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s0_quotes"
	"github.com/wonny/dailybrief/pkg/logger"
	"github.com/wonny/dailybrief/pkg/workpool"
)

// QuoteFetcher is the subset of the quote fetcher used here
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbols []string) (*s0_quotes.FetchResult, error)
}

// Request is one discovery call
type Request struct {
	Count       int
	FocusGroups []string
	MinPrice    float64
	MinVolume   int64
}

// RequestFromConfig builds a request from the pipeline config
func RequestFromConfig(cfg briefconfig.Discovery) Request {
	return Request{
		Count:       cfg.Count,
		FocusGroups: cfg.FocusGroups,
		MinPrice:    cfg.MinPrice,
		MinVolume:   cfg.MinVolume,
	}
}

// Result is the discovery outcome
type Result struct {
	Symbols    []string                   `json:"symbols"`
	Scores     []contracts.CandidateScore `json:"scores"`     // 선정된 종목의 점수 (점수 순)
	Backfilled []string                   `json:"backfilled"` // 시세 없이 채워진 종목
	Excluded   []string                   `json:"excluded"`   // 최근 분석되어 제외된 종목
	Fallback   bool                       `json:"fallback"`   // 기본 종목 사용 여부
}

// Discoverer selects the day's candidate symbols
// ⭐ SSOT: 후보 선정은 항상 결과를 반환 (실패 시 기본 종목)
type Discoverer struct {
	cfg       *briefconfig.Config
	quotes    QuoteFetcher
	sentiment []contracts.SentimentProvider
	history   contracts.HistoryStore
	scorer    *Scorer
	workers   int
	logger    *logger.Logger
}

// Option configures a Discoverer
type Option func(*Discoverer)

// WithRand sets the random source for the exploration term
func WithRand(rng *rand.Rand) Option {
	return func(d *Discoverer) {
		d.scorer = NewScorer(d.cfg.Discovery.Weights, rng)
	}
}

// WithHistory sets the store used for the exclusion window
func WithHistory(h contracts.HistoryStore) Option {
	return func(d *Discoverer) {
		d.history = h
	}
}

// NewDiscoverer creates a discoverer
func NewDiscoverer(cfg *briefconfig.Config, quotes QuoteFetcher, sentiment []contracts.SentimentProvider, log *logger.Logger, opts ...Option) *Discoverer {
	seed := uint64(time.Now().UnixNano())
	d := &Discoverer{
		cfg:       cfg,
		quotes:    quotes,
		sentiment: sentiment,
		scorer:    NewScorer(cfg.Discovery.Weights, rand.New(rand.NewPCG(seed, seed>>1))),
		workers:   cfg.Pipeline.Workers,
		logger:    log.WithField("module", "s1_discovery"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover returns at most req.Count symbols. It never fails: when every data
// source fails it returns the configured fallback symbols.
func (d *Discoverer) Discover(ctx context.Context, req Request) *Result {
	if req.Count <= 0 {
		req.Count = d.cfg.Discovery.Count
	}

	// 1. Universe (focus groups, dedupe)
	universe := contracts.UniqueSymbols(d.cfg.Universe(req.FocusGroups))

	// 2. 최근 분석 종목 제외
	candidates, excluded, recent := d.excludeRecent(ctx, universe)

	// 3. 후보 수 제한 (provider 호출량 제한)
	if max := d.cfg.Discovery.MaxCandidates; max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	if len(candidates) == 0 {
		d.logger.WithFields(map[string]interface{}{
			"focus_groups": req.FocusGroups,
			"excluded":     len(excluded),
		}).Warn("No candidates left in universe, using fallback symbols")
		return d.fallback(req.Count, excluded, recent)
	}

	// 4. 시세 조회 (부분 실패 허용)
	fetched, err := d.quotes.Fetch(ctx, candidates)
	if err != nil && !errors.Is(err, s0_quotes.ErrUnresolved) {
		fetched = nil
	}
	if fetched == nil || len(fetched.Quotes) == 0 {
		d.logger.WithError(err).WithField("candidates", len(candidates)).
			Warn("All quote sources failed during discovery, using fallback symbols")
		return d.fallback(req.Count, excluded, recent)
	}
	if err != nil {
		d.logger.WithFields(map[string]interface{}{
			"resolved":   fetched.Quality.Successful,
			"unresolved": fetched.Quality.Failed,
		}).Info("Discovery continuing with partial quotes")
	}

	// 5. Price/volume filter
	var (
		passing  []contracts.Quote
		rejected = make(map[string]bool)
	)
	for _, q := range fetched.Quotes {
		if q.Price < req.MinPrice || q.Volume < req.MinVolume {
			rejected[q.Symbol] = true
			continue
		}
		passing = append(passing, q)
	}

	// 6. 변동폭이 큰 종목만 sentiment 조회
	sentiments := d.fetchSentiment(ctx, passing)

	// 7. Score + rank
	scores := make([]contracts.CandidateScore, 0, len(passing))
	for _, q := range passing {
		scores = append(scores, d.scorer.Score(q, sentiments[q.Symbol]))
	}
	Rank(scores)
	if len(scores) > req.Count {
		scores = scores[:req.Count]
	}

	result := &Result{
		Symbols:  make([]string, 0, req.Count),
		Scores:   scores,
		Excluded: excluded,
	}
	selected := make(map[string]bool, len(scores))
	for _, s := range scores {
		result.Symbols = append(result.Symbols, s.Symbol)
		selected[s.Symbol] = true
	}

	// 8. Backfill: 필터 탈락이 아닌 (시세 미확보) 후보로 채움
	for _, s := range candidates {
		if len(result.Symbols) >= req.Count {
			break
		}
		if selected[s] || rejected[s] || !contracts.ValidSymbol(s) {
			continue
		}
		if _, ok := fetched.Get(s); ok {
			continue
		}
		result.Symbols = append(result.Symbols, s)
		result.Backfilled = append(result.Backfilled, s)
		selected[s] = true
	}

	d.logger.WithFields(map[string]interface{}{
		"universe":   len(universe),
		"candidates": len(candidates),
		"passing":    len(passing),
		"selected":   len(result.Symbols),
		"backfilled": len(result.Backfilled),
	}).Info("Discovery completed")

	return result
}

// excludeRecent drops symbols analyzed within the exclusion window.
// The returned set holds every recent symbol, including ones outside the universe.
func (d *Discoverer) excludeRecent(ctx context.Context, universe []string) ([]string, []string, map[string]bool) {
	if d.history == nil || d.cfg.Discovery.ExclusionDays <= 0 {
		return universe, nil, nil
	}

	recent, err := d.history.GetRecentSymbols(ctx, d.cfg.Discovery.ExclusionDays)
	if err != nil {
		d.logger.WithError(err).Warn("Recent symbol lookup failed, skipping exclusion")
		return universe, nil, nil
	}

	skip := make(map[string]bool, len(recent))
	for _, s := range recent {
		skip[contracts.NormalizeSymbol(s)] = true
	}

	var kept, excluded []string
	for _, s := range universe {
		if skip[s] {
			excluded = append(excluded, s)
		} else {
			kept = append(kept, s)
		}
	}
	return kept, excluded, skip
}

// fetchSentiment queries sentiment providers for material movers only
func (d *Discoverer) fetchSentiment(ctx context.Context, quotes []contracts.Quote) map[string]*contracts.Sentiment {
	out := make(map[string]*contracts.Sentiment)
	if len(d.sentiment) == 0 {
		return out
	}

	var movers []string
	for _, q := range quotes {
		if math.Abs(q.ChangePercent) > d.cfg.Discovery.SentimentThresholdPct {
			movers = append(movers, q.Symbol)
		}
	}

	results := workpool.Run(ctx, d.workers, movers, func(ctx context.Context, symbol string) (*contracts.Sentiment, error) {
		readings := make([]*contracts.Sentiment, 0, len(d.sentiment))
		for _, p := range d.sentiment {
			s, err := p.GetSentiment(ctx, symbol)
			if err != nil {
				d.logger.WithError(err).WithFields(map[string]interface{}{
					"provider": p.Name(),
					"symbol":   symbol,
				}).Debug("Sentiment unavailable")
				continue
			}
			readings = append(readings, s)
		}
		return contracts.MergeSentiment(symbol, readings...), nil
	})

	for i, r := range results {
		if r.Value != nil {
			out[movers[i]] = r.Value
		}
	}
	return out
}

// fallback returns the configured default symbols minus recently analyzed ones
func (d *Discoverer) fallback(count int, excluded []string, recent map[string]bool) *Result {
	var symbols []string
	for _, s := range d.cfg.Discovery.FallbackSymbols {
		if !recent[contracts.NormalizeSymbol(s)] {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) > count {
		symbols = symbols[:count]
	}
	return &Result{
		Symbols:  symbols,
		Excluded: excluded,
		Fallback: true,
	}
}
