package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wonny/dailybrief/internal/brain"
	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/external/finnhub"
	"github.com/wonny/dailybrief/internal/external/finviz"
	"github.com/wonny/dailybrief/internal/external/llm"
	"github.com/wonny/dailybrief/internal/external/reddit"
	"github.com/wonny/dailybrief/internal/external/yahoo"
	"github.com/wonny/dailybrief/internal/s0_quotes"
	"github.com/wonny/dailybrief/internal/s1_discovery"
	"github.com/wonny/dailybrief/internal/s2_aggregate"
	"github.com/wonny/dailybrief/internal/s3_analysis"
	"github.com/wonny/dailybrief/internal/s4_validation"
	"github.com/wonny/dailybrief/internal/store"
	"github.com/wonny/dailybrief/pkg/config"
	"github.com/wonny/dailybrief/pkg/database"
	"github.com/wonny/dailybrief/pkg/httputil"
	"github.com/wonny/dailybrief/pkg/logger"
	"github.com/wonny/dailybrief/pkg/metrics"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// historyStore is what the pipeline needs from persistence
type historyStore interface {
	contracts.HistoryStore
	contracts.Publisher
}

// app holds every wired component
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	brief    *briefconfig.Config
	log      *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Recorder

	db    *database.DB
	store historyStore

	quoteProviders []contracts.QuoteProvider
	fetcher        *s0_quotes.Fetcher
	discoverer     *s1_discovery.Discoverer
	aggregator     *s2_aggregate.Aggregator
	gate           *s4_validation.Validator
	orchestrator   *brain.Orchestrator // nil unless withModel
}

type appOptions struct {
	withModel bool
	observer  brain.Observer
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Pipeline config
	path := briefConfigPath
	if path == "" {
		path = cfg.BriefConfigPath
	}
	brief, err := briefconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}

	// 4. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &app{
		cfg:      cfg,
		brief:    brief,
		log:      log,
		registry: reg,
		metrics:  metrics.New(reg),
	}

	// 5. Persistence
	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		pg := store.NewPostgresStore(db.Pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.store = pg
		log.Info("Connected to database")
	} else {
		a.store = store.NewMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory history")
	}

	// 6. Providers
	sources := a.buildProviders()

	a.fetcher = s0_quotes.New(a.quoteProviders, s0_quotes.Policy{
		Order:       brief.Quotes.Order,
		MaxBatch:    brief.Quotes.MaxBatch,
		CallTimeout: brief.Quotes.CallTimeout,
	}, a.metrics, log)

	a.discoverer = s1_discovery.NewDiscoverer(brief, a.fetcher, sources.Sentiment, log,
		s1_discovery.WithHistory(a.store))
	a.aggregator = s2_aggregate.New(a.fetcher, sources, brief.Aggregation, brief.Quotes.CallTimeout, a.metrics, log)
	a.gate = s4_validation.New(a.metrics, log)

	// 7. Model + orchestrator
	if opts.withModel {
		model, err := llm.NewModel(ctx, cfg.LLM, log)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init model: %w", err)
		}

		a.orchestrator = brain.NewOrchestrator(brain.Deps{
			Discoverer: a.discoverer,
			Aggregator: a.aggregator,
			Analyzer:   s3_analysis.New(model, brief.Analysis.Timeout, log),
			Gate:       a.gate,
			History:    a.store,
			Publisher:  a.store,
			Metrics:    a.metrics,
			Observer:   opts.observer,
		}, brain.PolicyFromConfig(brief.Pipeline), log)
	}

	log.WithFields(map[string]interface{}{
		"quote_providers": a.fetcher.Providers(),
		"groups":          brief.GroupNames(),
		"model":           opts.withModel,
	}).Debug("Application wired")

	return a, nil
}

// buildProviders creates the enabled provider adapters
func (a *app) buildProviders() s2_aggregate.Sources {
	var src s2_aggregate.Sources
	timeout := a.cfg.ProviderTimeout

	if a.cfg.Yahoo.Enabled {
		y := yahoo.New(a.log)
		a.quoteProviders = append(a.quoteProviders, y)
		src.Fundamentals = append(src.Fundamentals, y)
	}

	if a.cfg.Finnhub.APIKey != "" {
		f := finnhub.New(a.cfg.Finnhub, timeout, a.log)
		a.quoteProviders = append(a.quoteProviders, f)
		src.Fundamentals = append(src.Fundamentals, f)
		src.News = append(src.News, f)
		src.Sentiment = append(src.Sentiment, f)
		src.Insider = append(src.Insider, f)
		src.Analyst = append(src.Analyst, f)
	} else {
		a.log.Warn("FINNHUB_API_KEY not set, Finnhub disabled")
	}

	if a.cfg.Finviz.Enabled {
		hc := httputil.New(a.log, timeout).
			WithHeader("User-Agent", browserUserAgent).
			WithRateLimit(1)
		fv := finviz.NewClient(hc, a.cfg.Finviz.BaseURL, a.log)
		src.News = append(src.News, fv)
		src.Fundamentals = append(src.Fundamentals, fv)
	}

	if len(a.cfg.Reddit.Subreddits) > 0 {
		src.Sentiment = append(src.Sentiment, reddit.New(a.cfg.Reddit, timeout, a.log))
	}

	src.Verifiers = a.quoteProviders
	return src
}

// newRunConfig builds a run configuration from the loaded pipeline config
func (a *app) newRunConfig(date time.Time) brain.RunConfig {
	return brain.NewRunConfig(a.brief, date)
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}
