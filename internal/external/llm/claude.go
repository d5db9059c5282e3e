package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wonny/dailybrief/pkg/config"
	"github.com/wonny/dailybrief/pkg/logger"
)

const systemPrompt = "You are an equity research analyst. Respond with a single JSON object and nothing else."

// Claude is a contracts.Model backed by the Anthropic Messages API
type Claude struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	logger      *logger.Logger
}

// NewClaude creates a Claude model. Extra request options (base URL, retries)
// are passed through to the SDK client.
func NewClaude(cfg config.LLMConfig, log *logger.Logger, opts ...option.RequestOption) *Claude {
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	base := []option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}
	if cfg.Timeout > 0 {
		base = append(base, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(base, opts...)
	return &Claude{
		client:      anthropic.NewClient(opts...),
		model:       cfg.ClaudeModel,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		logger:      log.WithField("module", "claude"),
	}
}

// Complete sends one user message and concatenates the text blocks
func (c *Claude) Complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude completion: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", ErrEmptyCompletion
	}

	c.logger.WithFields(map[string]interface{}{
		"model":         c.model,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}).Debug("Claude completion")
	return out.String(), nil
}
