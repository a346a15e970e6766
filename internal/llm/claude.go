package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/model"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
)

// ClaudeClient implements Client with the Anthropic Messages API.
type ClaudeClient struct {
	client   anthropic.Client
	settings Settings
	logger   arbor.ILogger
}

// NewClaudeClient creates a Claude client. Requests are not retried.
func NewClaudeClient(s Settings, logger arbor.ILogger) (*ClaudeClient, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for Claude (set ANTHROPIC_API_KEY or llm.anthropic_api_key)")
	}
	if s.Model == "" {
		s.Model = DefaultClaudeModel
	}
	if s.ExtractModel == "" {
		s.ExtractModel = s.Model
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 4096
	}
	if s.Timeout <= 0 {
		s.Timeout = 2 * time.Minute
	}

	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}

	logger.Debug().
		Str("model", s.Model).
		Dur("timeout", s.Timeout).
		Int("max_tokens", s.MaxTokens).
		Msg("Claude client initialized")

	return &ClaudeClient{
		client:   anthropic.NewClient(opts...),
		settings: s,
		logger:   logger,
	}, nil
}

func (c *ClaudeClient) Name() string { return "claude" }

func (c *ClaudeClient) generate(ctx context.Context, modelName, system, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: int64(c.settings.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}
	if c.settings.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(c.settings.Temperature))
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w: %v", model.ErrUpstreamUnavailable, err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	c.logger.Debug().
		Str("model", modelName).
		Int("response_length", out.Len()).
		Dur("duration", time.Since(start)).
		Msg("Claude generation completed")
	return out.String(), nil
}

// ExtractTickers asks for a bare JSON object and rejects anything else.
func (c *ClaudeClient) ExtractTickers(ctx context.Context, question string) ([]string, error) {
	system := tickerSystemPrompt + ` Respond with only a JSON object of the form {"tickers": ["AAPL"]} and no other text.`
	text, err := c.generate(ctx, c.settings.ExtractModel, system, question)
	if err != nil {
		return nil, err
	}
	return parseTickers(text)
}

func (c *ClaudeClient) Summarize(ctx context.Context, system, instruction string) (string, error) {
	text, err := c.generate(ctx, c.settings.Model, system, instruction)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
