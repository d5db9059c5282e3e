package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dailybrief/pkg/config"
	"github.com/wonny/dailybrief/pkg/logger"
)

func TestNewModelRequiresKey(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	_, err := NewModel(ctx, config.LLMConfig{Provider: "claude"}, log)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewModel(ctx, config.LLMConfig{Provider: "gemini"}, log)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewModel(ctx, config.LLMConfig{Provider: "gpt", AnthropicAPIKey: "k"}, log)
	assert.Error(t, err)

	m, err := NewModel(ctx, config.LLMConfig{Provider: "claude", AnthropicAPIKey: "k"}, log)
	require.NoError(t, err)
	assert.IsType(t, &Claude{}, m)
}

func claudeServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "claude-test", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": ` + content + `,
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 34}
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClaudeComplete(t *testing.T) {
	srv := claudeServer(t, `[{"type":"text","text":"{\"symbol\":"},{"type":"text","text":"\"AAPL\"}"}]`)

	c := NewClaude(config.LLMConfig{AnthropicAPIKey: "test-key", ClaudeModel: "claude-test"}, logger.NewNop(),
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	out, err := c.Complete(context.Background(), "analyze AAPL")
	require.NoError(t, err)
	assert.Equal(t, `{"symbol":"AAPL"}`, out)
}

func TestClaudeEmptyCompletion(t *testing.T) {
	srv := claudeServer(t, `[]`)

	c := NewClaude(config.LLMConfig{AnthropicAPIKey: "test-key", ClaudeModel: "claude-test"}, logger.NewNop(),
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	_, err := c.Complete(context.Background(), "analyze AAPL")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}
