package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline metrics with Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	quoteFallbacks   *prometheus.CounterVec
	stageOutcomes    *prometheus.CounterVec
	rejections       prometheus.Counter
	runDuration      prometheus.Histogram
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dailybrief_provider_requests_total",
				Help: "Provider calls by provider and outcome (hit, miss, error)",
			},
			[]string{"provider", "outcome"},
		),
		quoteFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dailybrief_quote_fallbacks_total",
				Help: "Symbols handed to a secondary quote provider",
			},
			[]string{"provider"},
		),
		stageOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dailybrief_stage_outcomes_total",
				Help: "Pipeline stage outcomes (completed, partial, failed, skipped)",
			},
			[]string{"stage", "outcome"},
		),
		rejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dailybrief_validator_rejections_total",
				Help: "Model outputs rejected by the output validator",
			},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dailybrief_run_duration_seconds",
				Help:    "Duration of complete pipeline runs",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
			},
		),
	}
}

// ProviderRequest records one provider call outcome.
func (r *Recorder) ProviderRequest(provider, outcome string) {
	if r == nil {
		return
	}
	r.providerRequests.WithLabelValues(provider, outcome).Inc()
}

// QuoteFallback records n symbols handed to a secondary provider.
func (r *Recorder) QuoteFallback(provider string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.quoteFallbacks.WithLabelValues(provider).Add(float64(n))
}

// StageOutcome records the final status of a pipeline stage.
func (r *Recorder) StageOutcome(stage, outcome string) {
	if r == nil {
		return
	}
	r.stageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// Rejection records a validator rejection.
func (r *Recorder) Rejection() {
	if r == nil {
		return
	}
	r.rejections.Inc()
}

// RunDuration records a complete run duration.
func (r *Recorder) RunDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Observe(d.Seconds())
}
