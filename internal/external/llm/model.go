package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/pkg/config"
	"github.com/wonny/dailybrief/pkg/logger"
)

// ErrNoAPIKey is returned when the selected provider has no key configured
var ErrNoAPIKey = errors.New("llm API key not configured")

// ErrEmptyCompletion is returned when the model produced no text
var ErrEmptyCompletion = errors.New("llm returned no text")

// NewModel builds the model selected by cfg.Provider
// ⭐ SSOT: 모델 선택은 여기서만
func NewModel(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (contracts.Model, error) {
	switch cfg.Provider {
	case "claude", "":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("claude: %w", ErrNoAPIKey)
		}
		return NewClaude(cfg, log), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini: %w", ErrNoAPIKey)
		}
		return NewGemini(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
