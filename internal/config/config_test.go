package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "yahoo", cfg.MarketData.Provider)
	assert.Equal(t, "6mo", cfg.MarketData.Period)
	assert.Equal(t, 7, cfg.News.LookbackDays)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/briefd.db", cfg.Database.SQLitePath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
llm:
  provider: claude
  anthropic_api_key: from-file
market_data:
  provider: alphavantage
  alpha_vantage_api_key: av-key
  period: 3mo
schedule:
  briefs:
    - name: morning
      cron: "0 0 8 * * 1-5"
      question: "How is my portfolio doing?"
`)
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("BRIEFD_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "from-env", cfg.LLM.AnthropicAPIKey)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "3mo", cfg.MarketData.Period)
	require.Len(t, cfg.Schedule.Briefs, 1)
	assert.Equal(t, "morning", cfg.Schedule.Briefs[0].Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [oops"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.LLM.Provider = "offline"
		cfg.MarketData.Provider = "mock"
		cfg.applyDefaults()
		return cfg
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"gemini without key", func(c *Config) { c.LLM.Provider = "gemini" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gpt" }},
		{"alphavantage without key", func(c *Config) { c.MarketData.Provider = "alphavantage" }},
		{"bad period", func(c *Config) { c.MarketData.Period = "7d" }},
		{"telegram without chat", func(c *Config) { c.Telegram.BotToken = "tok" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"bad duration", func(c *Config) { c.LLM.Timeout = "soon" }},
		{"incomplete schedule", func(c *Config) {
			c.Schedule.Briefs = []ScheduledBrief{{Name: "x", Cron: "0 0 8 * * *"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, Duration("5s", time.Minute))
	assert.Equal(t, time.Minute, Duration("nope", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
}
