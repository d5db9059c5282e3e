package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s1_discovery"
	"github.com/wonny/dailybrief/internal/s2_aggregate"
	"github.com/wonny/dailybrief/internal/s4_validation"
	"github.com/wonny/dailybrief/pkg/logger"
	"github.com/wonny/dailybrief/pkg/metrics"
)

type fakeDiscoverer struct {
	result *s1_discovery.Result
}

func (f *fakeDiscoverer) Discover(ctx context.Context, req s1_discovery.Request) *s1_discovery.Result {
	return f.result
}

type fakeAggregator struct {
	fail map[string]bool
}

func (f *fakeAggregator) Gather(ctx context.Context, symbol string, r *contracts.DateRange) (*s2_aggregate.Bundle, error) {
	if f.fail[symbol] {
		return nil, fmt.Errorf("%w: %s", s2_aggregate.ErrNoRealQuote, symbol)
	}
	return &s2_aggregate.Bundle{
		Symbol: symbol,
		Quote:  contracts.Quote{Symbol: symbol, Price: 100, Volume: 1000, IsRealData: true, Source: "yahoo"},
	}, nil
}

func (f *fakeAggregator) Merge(b *s2_aggregate.Bundle) *contracts.AggregatedRecord {
	return s2_aggregate.Merge(b, briefconfig.Default().Aggregation)
}

// fakeAnalyzer returns a valid recommendation unless told otherwise.
// failures[symbol] counts how many calls fail before succeeding (-1 = always).
type fakeAnalyzer struct {
	mu         sync.Mutex
	failures   map[string]int
	invalid    map[string]bool
	confidence map[string]float64
	calls      map[string]int
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		failures:   map[string]int{},
		invalid:    map[string]bool{},
		confidence: map[string]float64{},
		calls:      map[string]int{},
	}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, rec *contracts.AggregatedRecord, history string) (string, error) {
	f.mu.Lock()
	f.calls[rec.Symbol]++
	n := f.calls[rec.Symbol]
	remaining := f.failures[rec.Symbol]
	invalid := f.invalid[rec.Symbol]
	conf, ok := f.confidence[rec.Symbol]
	f.mu.Unlock()

	if remaining < 0 || n <= remaining {
		return "", errors.New("model overloaded")
	}
	if invalid {
		return `{"symbol":"` + rec.Symbol + `","sector":"unknown"}`, nil
	}
	if !ok {
		conf = 70
	}

	b, _ := json.Marshal(map[string]any{
		"symbol":      rec.Symbol,
		"companyName": rec.Symbol + " Inc",
		"sector":      "Information Technology",
		"price":       rec.Quote.Price,
		"volume":      rec.Quote.Volume,
		"action":      "BUY",
		"confidence":  conf,
		"riskLevel":   "Medium",
		"targetPrice": rec.Quote.Price * 1.1,
		"stopLoss":    rec.Quote.Price * 0.95,
		"timeframe":   "1-2 weeks",
		"reasoning":   "Momentum and sentiment are both supportive.",
	})
	return string(b), nil
}

type fakePublisher struct {
	err     error
	records []contracts.ValidatedRecord
	date    time.Time
}

func (f *fakePublisher) Publish(ctx context.Context, records []contracts.ValidatedRecord, date time.Time) error {
	f.records = records
	f.date = date
	return f.err
}

type fakeHistory struct {
	summaries string
	err       error
}

func (f *fakeHistory) GetRecentSymbols(ctx context.Context, windowDays int) ([]string, error) {
	return nil, nil
}

func (f *fakeHistory) GetRecentSummaries(ctx context.Context, windowDays int) (string, error) {
	return f.summaries, f.err
}

type harness struct {
	discoverer *fakeDiscoverer
	aggregator *fakeAggregator
	analyzer   *fakeAnalyzer
	publisher  *fakePublisher
	history    *fakeHistory
	events     []StageEvent
	policy     Policy
}

func newHarness(symbols ...string) *harness {
	return &harness{
		discoverer: &fakeDiscoverer{result: &s1_discovery.Result{Symbols: symbols}},
		aggregator: &fakeAggregator{fail: map[string]bool{}},
		analyzer:   newFakeAnalyzer(),
		publisher:  &fakePublisher{},
		history:    &fakeHistory{summaries: "2025-05-30: AMD"},
		policy:     Policy{Workers: 2, MinViable: 1, RetryOnce: true},
	}
}

func (h *harness) orchestrator() *Orchestrator {
	var mu sync.Mutex
	return NewOrchestrator(Deps{
		Discoverer: h.discoverer,
		Aggregator: h.aggregator,
		Analyzer:   h.analyzer,
		Gate:       s4_validation.New(nil, logger.NewNop()),
		History:    h.history,
		Publisher:  h.publisher,
		Metrics:    metrics.New(prometheus.NewRegistry()),
		Observer: func(e StageEvent) {
			mu.Lock()
			h.events = append(h.events, e)
			mu.Unlock()
		},
	}, h.policy, logger.NewNop())
}

func (h *harness) run(t *testing.T) (*RunResult, error) {
	t.Helper()
	return h.orchestrator().Run(context.Background(), RunConfig{
		Date:        time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		HistoryDays: 30,
	})
}

func TestRun_AllStagesSucceed(t *testing.T) {
	h := newHarness("AAA", "BBB", "CCC")

	result, err := h.run(t)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.Records, 3)
	assert.False(t, result.Degraded())
	for _, stage := range contracts.AllStages() {
		assert.True(t, result.Steps[stage], "stage %s", stage)
		assert.Equal(t, contracts.StatusCompleted, result.Status[stage], "stage %s", stage)
	}
	assert.Len(t, h.publisher.records, 3)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, h.events, len(contracts.AllStages()))
	assert.Equal(t, contracts.StageDiscovery, h.events[0].Stage)
	assert.Equal(t, contracts.StagePublish, h.events[len(h.events)-1].Stage)
}

// Analyze fails for 2 of 3 symbols, the remaining one validates.
func TestRun_AnalyzeFailsForTwoOfThree(t *testing.T) {
	h := newHarness("AAA", "BBB", "CCC")
	h.analyzer.failures["AAA"] = -1
	h.analyzer.failures["CCC"] = -1

	result, err := h.run(t)

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "BBB", result.Records[0].Symbol())
	assert.True(t, result.Steps[contracts.StageValidation])
	assert.True(t, result.Steps[contracts.StageAnalysis])
	assert.Equal(t, contracts.StatusPartial, result.Status[contracts.StageAnalysis])
	assert.ElementsMatch(t, []string{"AAA", "CCC"}, result.Failures[contracts.StageAnalysis])
	assert.True(t, result.Degraded())
}

func TestRun_DiscoveryEmptyFails(t *testing.T) {
	h := newHarness()

	result, err := h.run(t)

	require.Error(t, err)
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, contracts.StageDiscovery, runErr.Stage)
	assert.False(t, result.Success)
	assert.False(t, result.Steps[contracts.StageDiscovery])
	assert.Equal(t, contracts.StatusSkipped, result.Status[contracts.StagePublish])
	assert.Empty(t, h.publisher.records)
}

func TestRun_NothingSurvivesValidation(t *testing.T) {
	h := newHarness("AAA", "BBB")
	h.analyzer.invalid["AAA"] = true
	h.analyzer.invalid["BBB"] = true

	result, err := h.run(t)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, contracts.StageValidation, runErr.Stage)
	assert.Contains(t, result.Reason, "no symbol survived validation")
	assert.True(t, result.Steps[contracts.StageAnalysis])
	assert.False(t, result.Steps[contracts.StageValidation])
	assert.ElementsMatch(t, []string{"AAA", "BBB"}, result.Failures[contracts.StageValidation])
}

func TestRun_AllAnalysisFailsNamesAnalysisStage(t *testing.T) {
	h := newHarness("AAA")
	h.analyzer.failures["AAA"] = -1

	_, err := h.run(t)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, contracts.StageAnalysis, runErr.Stage)
}

func TestRun_GatherFailureDropsOnlyThatSymbol(t *testing.T) {
	h := newHarness("AAA", "BBB")
	h.aggregator.fail["AAA"] = true

	result, err := h.run(t)

	require.NoError(t, err)
	assert.Equal(t, contracts.StatusPartial, result.Status[contracts.StageGather])
	assert.Equal(t, []string{"AAA"}, result.Failures[contracts.StageGather])
	require.Len(t, result.Records, 1)
	assert.Equal(t, "BBB", result.Records[0].Symbol())
}

func TestRun_GatherFailsForAll(t *testing.T) {
	h := newHarness("AAA")
	h.aggregator.fail["AAA"] = true

	result, err := h.run(t)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, contracts.StageGather, runErr.Stage)
	assert.True(t, result.Steps[contracts.StageDiscovery])
	assert.False(t, result.Steps[contracts.StageGather])
}

func TestRun_RetryPassBelowMinViable(t *testing.T) {
	h := newHarness("AAA", "BBB", "CCC")
	h.policy.MinViable = 3
	h.analyzer.failures["BBB"] = 1 // fails once, then succeeds

	result, err := h.run(t)

	require.NoError(t, err)
	assert.Len(t, result.Records, 3)
	assert.Equal(t, []string{"BBB"}, result.Retried)
	assert.Equal(t, 2, h.analyzer.calls["BBB"])
	assert.Equal(t, 1, h.analyzer.calls["AAA"], "successful symbols are not retried")
	assert.Empty(t, result.Failures[contracts.StageAnalysis])
	assert.Equal(t, contracts.StatusCompleted, result.Status[contracts.StageAnalysis])
}

func TestRun_RetryHappensAtMostOnce(t *testing.T) {
	h := newHarness("AAA", "BBB")
	h.policy.MinViable = 2
	h.analyzer.failures["BBB"] = -1

	result, err := h.run(t)

	require.NoError(t, err)
	assert.Equal(t, 2, h.analyzer.calls["BBB"])
	assert.Len(t, result.Records, 1)
}

func TestRun_NoRetryWhenViable(t *testing.T) {
	h := newHarness("AAA", "BBB")
	h.policy.MinViable = 1
	h.analyzer.failures["BBB"] = -1

	result, err := h.run(t)

	require.NoError(t, err)
	assert.Equal(t, 1, h.analyzer.calls["BBB"])
	assert.Empty(t, result.Retried)
}

func TestRun_PublishFailureIsNotFatal(t *testing.T) {
	h := newHarness("AAA")
	h.publisher.err = errors.New("smtp down")

	result, err := h.run(t)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Steps[contracts.StagePublish])
	assert.Equal(t, contracts.StatusFailed, result.Status[contracts.StagePublish])
}

func TestRun_DryRunSkipsPublish(t *testing.T) {
	h := newHarness("AAA")

	result, err := h.orchestrator().Run(context.Background(), RunConfig{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, contracts.StatusSkipped, result.Status[contracts.StagePublish])
	assert.Nil(t, h.publisher.records)
	assert.Equal(t, contracts.StatusSkipped, result.Status[contracts.StageContext], "history lookup needs HistoryDays")
}

func TestRun_HistoryFailureIsSoft(t *testing.T) {
	h := newHarness("AAA")
	h.history.err = errors.New("db down")

	result, err := h.run(t)

	require.NoError(t, err)
	assert.False(t, result.Steps[contracts.StageContext])
	assert.Equal(t, contracts.StatusFailed, result.Status[contracts.StageContext])
}

func TestRun_PostprocessSortsAndAttaches(t *testing.T) {
	h := newHarness("AAA", "BBB", "CCC")
	h.analyzer.confidence = map[string]float64{"AAA": 60, "BBB": 90, "CCC": 60}

	result, err := h.run(t)

	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	assert.Equal(t, "BBB", result.Records[0].Symbol())
	assert.Equal(t, "AAA", result.Records[1].Symbol())
	assert.Equal(t, "CCC", result.Records[2].Symbol())
	for _, r := range result.Records {
		require.NotNil(t, r.Quote)
		require.NotNil(t, r.Quality)
		assert.Equal(t, 100.0, r.Quote.Price)
	}
}

func TestRun_ExplicitSymbolsSkipDiscovery(t *testing.T) {
	h := newHarness()

	result, err := h.orchestrator().Run(context.Background(), RunConfig{Symbols: []string{"aaa", "AAA", "bbb"}})

	require.NoError(t, err)
	assert.Nil(t, result.Discovery)
	assert.Len(t, result.Records, 2)
}

func TestRun_FallbackDiscoveryIsPartial(t *testing.T) {
	h := newHarness()
	h.discoverer.result = &s1_discovery.Result{Symbols: []string{"AAPL"}, Fallback: true}

	result, err := h.run(t)

	require.NoError(t, err)
	assert.Equal(t, contracts.StatusPartial, result.Status[contracts.StageDiscovery])
	assert.True(t, result.Steps[contracts.StageDiscovery])
}

func TestGenerateRunID(t *testing.T) {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	a := GenerateRunID(date)
	b := GenerateRunID(date)

	assert.Regexp(t, `^run_20250602_[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func TestNewRunConfigCarriesConfigHash(t *testing.T) {
	cfg := briefconfig.Default()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	rc := NewRunConfig(cfg, date)

	want, err := briefconfig.Hash(cfg)
	require.NoError(t, err)
	assert.Equal(t, want, rc.ConfigHash)
	assert.Equal(t, cfg.Analysis.HistoryDays, rc.HistoryDays)
	require.NotNil(t, rc.DateRange)
}
