package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/wonny/dailybrief/pkg/config"
	"github.com/wonny/dailybrief/pkg/logger"
)

// Gemini is a contracts.Model backed by the Gemini API
type Gemini struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	logger      *logger.Logger
}

// NewGemini creates a Gemini model
func NewGemini(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       cfg.GeminiModel,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: float32(cfg.Temperature),
		logger:      log.WithField("module", "gemini"),
	}, nil
}

// Complete asks for a JSON response and returns its text
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(g.temperature),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	if g.maxTokens > 0 {
		genCfg.MaxOutputTokens = g.maxTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyCompletion
	}

	g.logger.WithField("model", g.model).Debug("Gemini completion")
	return text, nil
}
