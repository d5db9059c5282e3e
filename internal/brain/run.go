package brain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s1_discovery"
)

// Policy is the orchestrator's retry/concurrency policy
// ⭐ SSOT: 재시도 규칙은 여기 하나뿐 (provider 호출 내부 재시도 없음)
type Policy struct {
	Workers   int  // 종목별 fan-out 동시 실행 수
	MinViable int  // 1차 결과가 이보다 적으면 실패 종목 재시도
	RetryOnce bool // analysis+validation 1회 재시도 허용
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Date        time.Time
	RunID       string
	Discovery   s1_discovery.Request
	Symbols     []string             // 지정 시 discovery 대신 사용
	DateRange   *contracts.DateRange // nil → aggregator 기본 (최근 7일)
	HistoryDays int
	ConfigHash  string
	DryRun      bool // publish 생략
}

// NewRunConfig builds the run configuration for date from the pipeline config
func NewRunConfig(cfg *briefconfig.Config, date time.Time) RunConfig {
	rng := contracts.LastDays(date, cfg.Aggregation.DateRangeDays)
	return RunConfig{
		Date:        date,
		RunID:       GenerateRunID(date),
		Discovery:   s1_discovery.RequestFromConfig(cfg.Discovery),
		DateRange:   &rng,
		HistoryDays: cfg.Analysis.HistoryDays,
		ConfigHash:  briefconfig.MustHash(cfg),
	}
}

// PolicyFromConfig maps the pipeline section onto the orchestrator policy
func PolicyFromConfig(cfg briefconfig.Pipeline) Policy {
	return Policy{
		Workers:   cfg.Workers,
		MinViable: cfg.MinViable,
		RetryOnce: cfg.RetryOnce,
	}
}

// RunResult holds the results of a pipeline run. Steps/Status/Failures are
// populated on both success and failure.
type RunResult struct {
	RunID      string                                    `json:"run_id"`
	Date       time.Time                                 `json:"date"`
	ConfigHash string                                    `json:"config_hash,omitempty"`
	Success    bool                                      `json:"success"`
	Error      error                                     `json:"-"`
	Reason     string                                    `json:"reason,omitempty"`
	Steps      map[contracts.Stage]bool                  `json:"steps"`
	Status     map[contracts.Stage]contracts.StageStatus `json:"status"`
	Failures   map[contracts.Stage][]string              `json:"failures"`
	Discovery  *s1_discovery.Result                      `json:"discovery,omitempty"`
	Records    []contracts.ValidatedRecord               `json:"records"`
	Retried    []string                                  `json:"retried,omitempty"`
	StartedAt  time.Time                                 `json:"started_at"`
	Duration   time.Duration                             `json:"duration"`
}

func newRunResult(cfg RunConfig) *RunResult {
	r := &RunResult{
		RunID:      cfg.RunID,
		Date:       cfg.Date,
		ConfigHash: cfg.ConfigHash,
		Steps:      make(map[contracts.Stage]bool),
		Status:     make(map[contracts.Stage]contracts.StageStatus),
		Failures:   make(map[contracts.Stage][]string),
		Records:    []contracts.ValidatedRecord{},
		StartedAt:  time.Now(),
	}
	for _, s := range contracts.AllStages() {
		r.Steps[s] = false
		r.Status[s] = contracts.StatusSkipped
	}
	return r
}

// Degraded reports whether any stage did not complete cleanly
func (r *RunResult) Degraded() bool {
	for _, s := range r.Status {
		if s != contracts.StatusCompleted {
			return true
		}
	}
	return false
}

// RunError is the structured failure of a run
type RunError struct {
	Stage  contracts.Stage
	Reason string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Reason)
}

// StageEvent is emitted after every stage
type StageEvent struct {
	RunID  string                `json:"run_id"`
	Stage  contracts.Stage       `json:"stage"`
	Status contracts.StageStatus `json:"status"`
	Count  int                   `json:"count"` // 단계 이후 남은 종목 수
	Failed []string              `json:"failed,omitempty"`
	Time   time.Time             `json:"time"`
}

// Observer receives stage events; it must not block
type Observer func(StageEvent)

// GenerateRunID generates a unique run ID
func GenerateRunID(date time.Time) string {
	return fmt.Sprintf("run_%s_%s", date.Format("20060102"), uuid.NewString()[:8])
}
