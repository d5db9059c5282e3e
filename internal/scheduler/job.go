package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule returns the cron expression: six fields with seconds,
	// e.g. "0 30 6 * * 1-5" (weekdays 06:30), or a descriptor like "@daily"
	Schedule() string
}

// RunSummary is the newsletter run outcome attached to a job result
type RunSummary struct {
	RunID       string   `json:"run_id"`
	Records     int      `json:"records"`
	Symbols     []string `json:"symbols,omitempty"`
	Degraded    bool     `json:"degraded"`
	Published   bool     `json:"published"`
	FailedStage string   `json:"failed_stage,omitempty"`
}

// Summarizer is implemented by jobs that report the run behind their last attempt
type Summarizer interface {
	LastSummary() *RunSummary
}

// JobResult is one activation of a job, after retries
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Summary   *RunSummary   `json:"summary,omitempty"`
}

const maxHistory = 100

// JobHistory keeps the last maxHistory results of one job, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest beyond maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// GetLatestResults returns the latest N results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// FailureCount counts failed activations
func (h *JobHistory) FailureCount() int {
	n := 0
	for _, r := range h.Results {
		if !r.Success {
			n++
		}
	}
	return n
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	return float64(len(h.Results)-h.FailureCount()) / float64(len(h.Results))
}

// LastResult returns the most recent result, if any
func (h *JobHistory) LastResult() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// LastPublished returns the summary of the most recent run that published records
func (h *JobHistory) LastPublished() (*RunSummary, bool) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if s := h.Results[i].Summary; s != nil && s.Published && s.Records > 0 {
			return s, true
		}
	}
	return nil, false
}

// DegradedCount counts successful runs that finished with degraded stages
func (h *JobHistory) DegradedCount() int {
	n := 0
	for _, r := range h.Results {
		if r.Success && r.Summary != nil && r.Summary.Degraded {
			n++
		}
	}
	return n
}
