package brain

import (
	"context"
	"sort"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s2_aggregate"
	"github.com/wonny/dailybrief/pkg/workpool"
)

// runDiscovery returns the symbols to analyze
func (o *Orchestrator) runDiscovery(ctx context.Context, cfg RunConfig, result *RunResult) []string {
	if len(cfg.Symbols) > 0 {
		symbols := contracts.UniqueSymbols(cfg.Symbols)
		o.record(result, contracts.StageDiscovery, contracts.StatusCompleted, len(symbols), nil)
		return symbols
	}

	res := o.discoverer.Discover(ctx, cfg.Discovery)
	result.Discovery = res

	status := contracts.StatusCompleted
	switch {
	case res == nil || len(res.Symbols) == 0:
		o.record(result, contracts.StageDiscovery, contracts.StatusFailed, 0, nil)
		return nil
	case res.Fallback || len(res.Backfilled) > 0:
		status = contracts.StatusPartial
	}

	o.logger.WithFields(map[string]interface{}{
		"symbols":  res.Symbols,
		"fallback": res.Fallback,
	}).Info("Discovery completed")

	o.record(result, contracts.StageDiscovery, status, len(res.Symbols), nil)
	return res.Symbols
}

// runContext loads recent summaries; failure degrades to no context
func (o *Orchestrator) runContext(ctx context.Context, cfg RunConfig, result *RunResult) string {
	if o.history == nil || cfg.HistoryDays <= 0 {
		o.record(result, contracts.StageContext, contracts.StatusSkipped, 0, nil)
		return ""
	}

	summaries, err := o.history.GetRecentSummaries(ctx, cfg.HistoryDays)
	if err != nil {
		o.logger.WithError(err).Warn("Historical context unavailable")
		o.record(result, contracts.StageContext, contracts.StatusFailed, 0, nil)
		return ""
	}

	o.record(result, contracts.StageContext, contracts.StatusCompleted, 0, nil)
	return summaries
}

// runGather fans out provider I/O per symbol
func (o *Orchestrator) runGather(ctx context.Context, cfg RunConfig, symbols []string, result *RunResult) []*s2_aggregate.Bundle {
	results := workpool.Run(ctx, o.policy.Workers, symbols, func(ctx context.Context, symbol string) (*s2_aggregate.Bundle, error) {
		return o.aggregator.Gather(ctx, symbol, cfg.DateRange)
	})

	var (
		bundles []*s2_aggregate.Bundle
		failed  []string
	)
	for i, r := range results {
		if r.Err != nil {
			o.logger.WithError(r.Err).WithField("symbol", symbols[i]).Warn("Gather failed, dropping symbol")
			failed = append(failed, symbols[i])
			continue
		}
		bundles = append(bundles, r.Value)
	}

	o.record(result, contracts.StageGather, fanOutStatus(len(bundles), len(failed)), len(bundles), failed)
	return bundles
}

// runAggregation merges bundles; Merge is pure and cannot fail
func (o *Orchestrator) runAggregation(bundles []*s2_aggregate.Bundle, result *RunResult) []*contracts.AggregatedRecord {
	records := make([]*contracts.AggregatedRecord, 0, len(bundles))
	for _, b := range bundles {
		records = append(records, o.aggregator.Merge(b))
	}

	o.record(result, contracts.StageAggregation, contracts.StatusCompleted, len(records), nil)
	return records
}

type analysisOutcome struct {
	record *contracts.ValidatedRecord
	stage  contracts.Stage // 실패한 단계 (성공 시 빈 값)
}

// runAnalysisAndValidation analyzes and validates every record, with one retry pass
// for failed symbols when fewer than MinViable survive.
func (o *Orchestrator) runAnalysisAndValidation(ctx context.Context, records []*contracts.AggregatedRecord, history string, result *RunResult) []*contracts.ValidatedRecord {
	outcomes := o.analyzeAll(ctx, records, history)

	countValid := func() int {
		n := 0
		for _, oc := range outcomes {
			if oc.record != nil {
				n++
			}
		}
		return n
	}

	if o.policy.RetryOnce && countValid() < o.policy.MinViable {
		var retry []*contracts.AggregatedRecord
		var idx []int
		for i, oc := range outcomes {
			if oc.record == nil {
				retry = append(retry, records[i])
				idx = append(idx, i)
				result.Retried = append(result.Retried, records[i].Symbol)
			}
		}

		if len(retry) > 0 {
			o.logger.WithFields(map[string]interface{}{
				"survivors":  countValid(),
				"min_viable": o.policy.MinViable,
				"retrying":   len(retry),
			}).Info("Below minimum viable count, retrying failed symbols once")

			for j, oc := range o.analyzeAll(ctx, retry, history) {
				outcomes[idx[j]] = oc
			}
		}
	}

	var (
		validated        []*contracts.ValidatedRecord
		analysisFailed   []string
		validationFailed []string
	)
	for i, oc := range outcomes {
		switch oc.stage {
		case contracts.StageAnalysis:
			analysisFailed = append(analysisFailed, records[i].Symbol)
		case contracts.StageValidation:
			validationFailed = append(validationFailed, records[i].Symbol)
		default:
			validated = append(validated, oc.record)
		}
	}

	analyzed := len(records) - len(analysisFailed)
	o.record(result, contracts.StageAnalysis, fanOutStatus(analyzed, len(analysisFailed)), analyzed, analysisFailed)
	if analyzed == 0 {
		o.record(result, contracts.StageValidation, contracts.StatusSkipped, 0, nil)
		return nil
	}
	o.record(result, contracts.StageValidation, fanOutStatus(len(validated), len(validationFailed)), len(validated), validationFailed)
	return validated
}

func (o *Orchestrator) analyzeAll(ctx context.Context, records []*contracts.AggregatedRecord, history string) []analysisOutcome {
	results := workpool.Run(ctx, o.policy.Workers, records, func(ctx context.Context, rec *contracts.AggregatedRecord) (analysisOutcome, error) {
		text, err := o.analyzer.Analyze(ctx, rec, history)
		if err != nil {
			o.logger.WithError(err).WithField("symbol", rec.Symbol).Warn("Analysis failed")
			return analysisOutcome{stage: contracts.StageAnalysis}, nil
		}

		validated, ok := o.gate.Check(rec.Symbol, text)
		if !ok {
			return analysisOutcome{stage: contracts.StageValidation}, nil
		}
		return analysisOutcome{record: validated}, nil
	})

	outcomes := make([]analysisOutcome, len(results))
	for i, r := range results {
		if r.Err != nil {
			// 컨텍스트 취소로 시작하지 못한 종목
			outcomes[i] = analysisOutcome{stage: contracts.StageAnalysis}
			continue
		}
		outcomes[i] = r.Value
	}
	return outcomes
}

// runPostprocess attaches quote and quality, drops duplicate symbols and sorts by confidence
func (o *Orchestrator) runPostprocess(validated []*contracts.ValidatedRecord, records []*contracts.AggregatedRecord, result *RunResult) []contracts.ValidatedRecord {
	bySymbol := make(map[string]*contracts.AggregatedRecord, len(records))
	for _, r := range records {
		bySymbol[r.Symbol] = r
	}

	seen := make(map[string]bool, len(validated))
	out := make([]contracts.ValidatedRecord, 0, len(validated))
	for _, v := range validated {
		if seen[v.Symbol()] {
			continue
		}
		seen[v.Symbol()] = true

		rec := *v
		if agg, ok := bySymbol[v.Symbol()]; ok {
			quote := agg.Quote
			quality := agg.Quality
			rec.Quote = &quote
			rec.Quality = &quality
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Recommendation.Confidence, out[j].Recommendation.Confidence
		if ci != cj {
			return ci > cj
		}
		return out[i].Symbol() < out[j].Symbol()
	})

	o.record(result, contracts.StagePostprocess, contracts.StatusCompleted, len(out), nil)
	return out
}

// runPublish hands records to the publish sink. Failure is recorded, not fatal.
func (o *Orchestrator) runPublish(ctx context.Context, cfg RunConfig, result *RunResult) {
	if cfg.DryRun || o.publisher == nil {
		o.logger.Info("Skipping publish (dry run or no publisher)")
		o.record(result, contracts.StagePublish, contracts.StatusSkipped, len(result.Records), nil)
		return
	}

	if err := o.publisher.Publish(ctx, result.Records, cfg.Date); err != nil {
		o.logger.WithError(err).WithField("run_id", result.RunID).Error("Publish failed")
		o.record(result, contracts.StagePublish, contracts.StatusFailed, 0, nil)
		return
	}

	o.record(result, contracts.StagePublish, contracts.StatusCompleted, len(result.Records), nil)
}
