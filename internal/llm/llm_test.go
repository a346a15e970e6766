package llm

import (
	"context"
	"errors"
	"testing"

	"MarketBrief/internal/config"
	"MarketBrief/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTickers(t *testing.T) {
	got, err := parseTickers(`{"tickers": ["AAPL", "MSFT"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)

	got, err = parseTickers("```json\n{\"tickers\": []}\n```")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseTickers("AAPL, MSFT")
	assert.True(t, errors.Is(err, model.ErrMalformedResponse))
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	c, err := NewClient(ctx, config.LLMConfig{Provider: "offline"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "offline", c.Name())

	_, err = NewClient(ctx, config.LLMConfig{Provider: "gemini"}, nil)
	assert.Error(t, err)

	_, err = NewClient(ctx, config.LLMConfig{Provider: "claude"}, nil)
	assert.Error(t, err)

	c, err = NewClient(ctx, config.LLMConfig{Provider: "claude", AnthropicAPIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "claude", c.Name())

	_, err = NewClient(ctx, config.LLMConfig{Provider: "gpt"}, nil)
	assert.Error(t, err)
}

func TestOfflineClient(t *testing.T) {
	c := NewOfflineClient()
	tickers, err := c.ExtractTickers(context.Background(), "How is $AAPL?")
	require.NoError(t, err)
	assert.Empty(t, tickers)

	out, err := c.Summarize(context.Background(), "You are an analyst.\n"+DataMarker+"\nAAPL up 5\n", "go")
	require.NoError(t, err)
	assert.Equal(t, "AAPL up 5", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Summarize(ctx, "x", "y")
	assert.Error(t, err)
}
