package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/model"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// GeminiClient implements Client with the Google Gemini API.
type GeminiClient struct {
	client   *genai.Client
	settings Settings
	logger   arbor.ILogger
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, s Settings, logger arbor.ILogger) (*GeminiClient, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required for Gemini (set GOOGLE_API_KEY or llm.google_api_key)")
	}
	if s.Model == "" {
		s.Model = DefaultGeminiModel
	}
	if s.ExtractModel == "" {
		s.ExtractModel = s.Model
	}
	if s.Timeout <= 0 {
		s.Timeout = 2 * time.Minute
	}

	cc := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	logger.Debug().
		Str("model", s.Model).
		Str("extract_model", s.ExtractModel).
		Dur("timeout", s.Timeout).
		Msg("Gemini client initialized")

	return &GeminiClient{client: client, settings: s, logger: logger}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) generate(ctx context.Context, modelName, system, text string, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	if c.settings.Temperature > 0 {
		cfg.Temperature = genai.Ptr(c.settings.Temperature)
	}
	if c.settings.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(c.settings.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, modelName,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w: %v", model.ErrUpstreamUnavailable, err)
	}
	out := resp.Text()

	c.logger.Debug().
		Str("model", modelName).
		Int("response_length", len(out)).
		Dur("duration", time.Since(start)).
		Msg("Gemini generation completed")
	return out, nil
}

// ExtractTickers asks for schema constrained JSON output.
func (c *GeminiClient) ExtractTickers(ctx context.Context, question string) ([]string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"tickers": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"tickers"},
		},
	}
	text, err := c.generate(ctx, c.settings.ExtractModel, tickerSystemPrompt, question, cfg)
	if err != nil {
		return nil, err
	}
	return parseTickers(text)
}

func (c *GeminiClient) Summarize(ctx context.Context, system, instruction string) (string, error) {
	text, err := c.generate(ctx, c.settings.Model, system, instruction, &genai.GenerateContentConfig{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
