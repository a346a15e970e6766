package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/config"
	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"

	"github.com/ternarybob/arbor"
)

// Client is the language model boundary.
type Client interface {
	Name() string
	// ExtractTickers returns the raw ticker tokens the model found in question.
	ExtractTickers(ctx context.Context, question string) ([]string, error)
	// Summarize answers instruction given the system prompt and returns plain text.
	Summarize(ctx context.Context, system, instruction string) (string, error)
}

// Settings configures a provider client.
type Settings struct {
	APIKey       string
	Model        string
	ExtractModel string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
	BaseURL      string
}

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultClaudeModel = "claude-sonnet-4-20250514"
)

const tickerSystemPrompt = "You are an expert at extracting stock ticker symbols from text. " +
	"Extract all relevant stock symbols from the user's query. " +
	"If no explicit tickers are mentioned, try to infer them based on company names. " +
	"If no stock-related entities are found, return an empty list. " +
	"Provide only the ticker symbols, not company names, in the list."

type tickerExtraction struct {
	Tickers []string `json:"tickers"`
}

// parseTickers decodes a {"tickers": [...]} object, tolerating a markdown code fence.
func parseTickers(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var out tickerExtraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, fmt.Errorf("decode ticker extraction: %w: %v", model.ErrMalformedResponse, err)
	}
	return out.Tickers, nil
}

// NewClient builds the client for cfg.Provider.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger arbor.ILogger) (Client, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	s := Settings{
		Model:        cfg.Model,
		ExtractModel: cfg.ExtractModel,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		Timeout:      config.Duration(cfg.Timeout, 2*time.Minute),
	}
	switch cfg.Provider {
	case "gemini":
		s.APIKey = cfg.GoogleAPIKey
		return NewGeminiClient(ctx, s, logger)
	case "claude":
		s.APIKey = cfg.AnthropicAPIKey
		return NewClaudeClient(s, logger)
	case "offline":
		return NewOfflineClient(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
