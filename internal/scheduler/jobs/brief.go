package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wonny/dailybrief/internal/brain"
	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/scheduler"
	"github.com/wonny/dailybrief/pkg/logger"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

var _ scheduler.Summarizer = (*BriefJob)(nil)

// BriefJob runs the daily newsletter pipeline
type BriefJob struct {
	runner    Runner
	newConfig func(date time.Time) brain.RunConfig
	schedule  string
	onResult  func(*brain.RunResult)
	now       func() time.Time
	logger    *logger.Logger

	mu   sync.Mutex
	last *scheduler.RunSummary
}

// NewBriefJob creates the daily brief job. onResult may be nil.
func NewBriefJob(runner Runner, newConfig func(time.Time) brain.RunConfig, schedule string, onResult func(*brain.RunResult), log *logger.Logger) *BriefJob {
	return &BriefJob{
		runner:    runner,
		newConfig: newConfig,
		schedule:  schedule,
		onResult:  onResult,
		now:       time.Now,
		logger:    log.WithField("job", "daily_brief"),
	}
}

// Name returns the job name
func (j *BriefJob) Name() string {
	return "daily_brief"
}

// Schedule returns the cron schedule
func (j *BriefJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline run. A failed run is reported as the job error.
func (j *BriefJob) Run(ctx context.Context) error {
	cfg := j.newConfig(j.now())
	j.logger.WithField("run_id", cfg.RunID).Info("Starting scheduled brief")

	result, err := j.runner.Run(ctx, cfg)
	j.setSummary(summarize(cfg.RunID, result, err))
	if result != nil && j.onResult != nil {
		j.onResult(result)
	}
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"records":  len(result.Records),
		"degraded": result.Degraded(),
	}).Info("Scheduled brief completed")
	return nil
}

// LastSummary returns the outcome of the most recent attempt
func (j *BriefJob) LastSummary() *scheduler.RunSummary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

func (j *BriefJob) setSummary(s *scheduler.RunSummary) {
	j.mu.Lock()
	j.last = s
	j.mu.Unlock()
}

func summarize(runID string, result *brain.RunResult, err error) *scheduler.RunSummary {
	s := &scheduler.RunSummary{RunID: runID}
	if result != nil {
		s.RunID = result.RunID
		s.Records = len(result.Records)
		s.Degraded = result.Degraded()
		s.Published = result.Steps[contracts.StagePublish]
		for _, rec := range result.Records {
			s.Symbols = append(s.Symbols, rec.Recommendation.Symbol)
		}
	}

	var runErr *brain.RunError
	if errors.As(err, &runErr) {
		s.FailedStage = string(runErr.Stage)
	}
	return s
}
