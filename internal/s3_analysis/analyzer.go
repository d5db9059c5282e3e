package s3_analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/pkg/logger"
)

// ErrEmptyResponse means the model returned no text
var ErrEmptyResponse = errors.New("empty model response")

// Analyzer asks the generative model for one recommendation per record
type Analyzer struct {
	model   contracts.Model
	timeout time.Duration
	logger  *logger.Logger
}

// New creates an analyzer. timeout bounds each model call.
func New(model contracts.Model, timeout time.Duration, log *logger.Logger) *Analyzer {
	return &Analyzer{
		model:   model,
		timeout: timeout,
		logger:  log.WithField("module", "s3_analysis"),
	}
}

// Analyze returns the JSON text extracted from the model reply. The text is untrusted.
func (a *Analyzer) Analyze(ctx context.Context, rec *contracts.AggregatedRecord, history string) (string, error) {
	prompt, err := BuildPrompt(rec, history)
	if err != nil {
		return "", err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("analyze %s: %w", rec.Symbol, err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("analyze %s: %w", rec.Symbol, ErrEmptyResponse)
	}

	a.logger.WithFields(map[string]interface{}{
		"symbol":      rec.Symbol,
		"prompt_len":  len(prompt),
		"reply_len":   len(reply),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Model call completed")

	return ExtractJSON(reply), nil
}
