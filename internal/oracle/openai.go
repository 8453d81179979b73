package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI queries the chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI backend. An empty baseURL uses the public API.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// legacyTokenParam reports whether the model still takes max_tokens rather
// than max_completion_tokens.
func legacyTokenParam(model string) bool {
	return strings.HasPrefix(model, "gpt-4o") || strings.HasPrefix(model, "gpt-3.5")
}

// Query implements Oracle.
func (o *OpenAI) Query(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if legacyTokenParam(o.model) {
		req.MaxTokens = budget(maxTokens)
	} else {
		req.MaxCompletionTokens = budget(maxTokens)
	}

	slog.Debug("querying OpenAI", "model", o.model, "prompt_bytes", len(prompt))
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	slog.Debug("OpenAI response", "finish_reason", resp.Choices[0].FinishReason,
		"completion_tokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}
