package brain

import (
	"context"
	"time"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s1_discovery"
	"github.com/wonny/dailybrief/internal/s2_aggregate"
	"github.com/wonny/dailybrief/pkg/logger"
	"github.com/wonny/dailybrief/pkg/metrics"
)

// Discoverer selects candidate symbols
type Discoverer interface {
	Discover(ctx context.Context, req s1_discovery.Request) *s1_discovery.Result
}

// Aggregator gathers provider data and merges it per symbol
type Aggregator interface {
	Gather(ctx context.Context, symbol string, r *contracts.DateRange) (*s2_aggregate.Bundle, error)
	Merge(b *s2_aggregate.Bundle) *contracts.AggregatedRecord
}

// Analyzer calls the generative model for one record
type Analyzer interface {
	Analyze(ctx context.Context, rec *contracts.AggregatedRecord, history string) (string, error)
}

// Gate is the output validator
type Gate interface {
	Check(symbol string, raw any) (*contracts.ValidatedRecord, bool)
}

// Orchestrator coordinates the 8-stage newsletter pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	// Stage components
	discoverer Discoverer
	aggregator Aggregator
	analyzer   Analyzer
	gate       Gate

	// External collaborators (nil 허용)
	history   contracts.HistoryStore
	publisher contracts.Publisher

	policy   Policy
	observer Observer
	metrics  *metrics.Recorder
	logger   *logger.Logger
}

// Deps groups the orchestrator's collaborators
type Deps struct {
	Discoverer Discoverer
	Aggregator Aggregator
	Analyzer   Analyzer
	Gate       Gate
	History    contracts.HistoryStore
	Publisher  contracts.Publisher
	Metrics    *metrics.Recorder
	Observer   Observer
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Deps, policy Policy, log *logger.Logger) *Orchestrator {
	if policy.Workers <= 0 {
		policy.Workers = 1
	}
	return &Orchestrator{
		discoverer: deps.Discoverer,
		aggregator: deps.Aggregator,
		analyzer:   deps.Analyzer,
		gate:       deps.Gate,
		history:    deps.History,
		publisher:  deps.Publisher,
		policy:     policy,
		observer:   deps.Observer,
		metrics:    deps.Metrics,
		logger:     log.WithField("module", "brain"),
	}
}

// Run executes the pipeline:
// discovery → context → gather → aggregation → analysis → validation → postprocess → publish
//
// It fails only when discovery yields no symbols or no symbol survives validation.
// The returned result is never nil.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	if cfg.Date.IsZero() {
		cfg.Date = time.Now()
	}
	if cfg.RunID == "" {
		cfg.RunID = GenerateRunID(cfg.Date)
	}
	result := newRunResult(cfg)

	o.logger.WithFields(map[string]interface{}{
		"run_id":  cfg.RunID,
		"date":    cfg.Date.Format("2006-01-02"),
		"dry_run": cfg.DryRun,
		"workers": o.policy.Workers,
	}).Info("Starting pipeline run")

	defer func() {
		result.Duration = time.Since(result.StartedAt)
		for stage, status := range result.Status {
			o.metrics.StageOutcome(stage.String(), string(status))
		}
		o.metrics.RunDuration(result.Duration)
	}()

	// 1. Discovery
	symbols := o.runDiscovery(ctx, cfg, result)
	if len(symbols) == 0 {
		return o.fail(result, contracts.StageDiscovery, "discovery returned no symbols")
	}

	// 2. Historical context (soft)
	history := o.runContext(ctx, cfg, result)

	// 3. Gather
	bundles := o.runGather(ctx, cfg, symbols, result)
	if len(bundles) == 0 {
		return o.fail(result, contracts.StageGather, "no symbol had a real-data quote")
	}

	// 4. Aggregation
	records := o.runAggregation(bundles, result)

	// 5-6. Analysis + validation (with one retry pass)
	validated := o.runAnalysisAndValidation(ctx, records, history, result)
	if len(validated) == 0 {
		stage := contracts.StageValidation
		if !result.Steps[contracts.StageAnalysis] {
			stage = contracts.StageAnalysis
		}
		return o.fail(result, stage, "no symbol survived validation")
	}

	// 7. Postprocess
	result.Records = o.runPostprocess(validated, records, result)

	// 8. Publish (실패해도 run 은 성공)
	o.runPublish(ctx, cfg, result)

	result.Success = true
	o.logger.WithFields(map[string]interface{}{
		"run_id":    cfg.RunID,
		"records":   len(result.Records),
		"degraded":  result.Degraded(),
		"published": result.Steps[contracts.StagePublish],
		"duration":  time.Since(result.StartedAt).Seconds(),
	}).Info("Pipeline run completed")

	return result, nil
}

func (o *Orchestrator) fail(result *RunResult, stage contracts.Stage, reason string) (*RunResult, error) {
	err := &RunError{Stage: stage, Reason: reason}
	result.Error = err
	result.Reason = err.Error()

	o.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"stage":  stage,
		"reason": reason,
	}).Error("Pipeline run failed")

	return result, err
}

// record sets a stage outcome and notifies the observer
func (o *Orchestrator) record(result *RunResult, stage contracts.Stage, status contracts.StageStatus, count int, failed []string) {
	result.Status[stage] = status
	result.Steps[stage] = status.Succeeded()
	if len(failed) > 0 {
		result.Failures[stage] = failed
	} else {
		delete(result.Failures, stage)
	}

	if o.observer != nil {
		o.observer(StageEvent{
			RunID:  result.RunID,
			Stage:  stage,
			Status: status,
			Count:  count,
			Failed: failed,
			Time:   time.Now(),
		})
	}
}

func fanOutStatus(ok, failed int) contracts.StageStatus {
	switch {
	case ok == 0:
		return contracts.StatusFailed
	case failed > 0:
		return contracts.StatusPartial
	default:
		return contracts.StatusCompleted
	}
}
