// Package llm summarizes fetched announcement bodies through an
// OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ComplianceRadar/internal/config"
	"ComplianceRadar/internal/ports"
)

const defaultSystemPrompt = `You are a financial compliance analyst. Summarize the regulatory announcement below in three to five sentences. Keep every named entity, date, amount and rule reference. State only what the announcement says, with no speculation and no advice.`

// maxContentChars caps the body sent per request so oversized pages do
// not blow the model's context window.
const maxContentChars = 24000

// OpenAISummarizer implements ports.Summarizer against any
// OpenAI-compatible API, including OpenRouter via a custom base URL.
type OpenAISummarizer struct {
	client       openai.Client
	model        string
	systemPrompt string
	logger       *slog.Logger
}

var _ ports.Summarizer = (*OpenAISummarizer)(nil)

// NewOpenAISummarizer builds a summarizer from configuration. An empty
// base URL keeps the library's default OpenAI endpoint.
func NewOpenAISummarizer(cfg config.SummarizerConfig, logger *slog.Logger) *OpenAISummarizer {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	prompt := strings.TrimSpace(cfg.SystemPrompt)
	if prompt == "" {
		prompt = defaultSystemPrompt
	}

	return &OpenAISummarizer{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: prompt,
		logger:       logger,
	}
}

// Summarize sends the announcement body as a user message and returns the
// model's reply. Empty input short-circuits without a request.
func (s *OpenAISummarizer) Summarize(ctx context.Context, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}
	if len(content) > maxContentChars {
		s.logger.Debug("truncating content before summarization",
			"length", len(content), "limit", maxContentChars)
		content = content[:maxContentChars]
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.systemPrompt),
			openai.UserMessage(content),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
