package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	MarketData MarketDataConfig `yaml:"market_data"`
	News       NewsConfig       `yaml:"news"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Portfolio  PortfolioConfig  `yaml:"portfolio"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Proxy      string           `yaml:"proxy" validate:"omitempty,url"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

type LLMConfig struct {
	Provider        string  `yaml:"provider" validate:"oneof=gemini claude offline"`
	GoogleAPIKey    string  `yaml:"google_api_key" validate:"required_if=Provider gemini"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key" validate:"required_if=Provider claude"`
	Model           string  `yaml:"model"`
	ExtractModel    string  `yaml:"extract_model"`
	Temperature     float32 `yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens       int     `yaml:"max_tokens" validate:"min=0"`
	Timeout         string  `yaml:"timeout"`
}

type MarketDataConfig struct {
	Provider           string `yaml:"provider" validate:"oneof=yahoo alphavantage mock"`
	AlphaVantageAPIKey string `yaml:"alpha_vantage_api_key" validate:"required_if=Provider alphavantage"`
	Period             string `yaml:"period" validate:"oneof=1mo 3mo 6mo 1y 2y"`
	Concurrency        int    `yaml:"concurrency" validate:"min=1"`
	RateLimit          int    `yaml:"rate_limit" validate:"min=1"`
	TradingDaysOnly    bool   `yaml:"trading_days_only"`
	Timeout            string `yaml:"timeout"`
}

type NewsConfig struct {
	Provider     string `yaml:"provider" validate:"oneof=newsapi none"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url" validate:"omitempty,url"`
	LookbackDays int    `yaml:"lookback_days" validate:"min=1"`
	RateLimit    int    `yaml:"rate_limit" validate:"min=1"`
	Timeout      string `yaml:"timeout"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
}

// ScheduledBrief is a question answered on a cron schedule.
type ScheduledBrief struct {
	Name     string `yaml:"name" validate:"required"`
	Cron     string `yaml:"cron" validate:"required"`
	Question string `yaml:"question" validate:"required"`
}

type ScheduleConfig struct {
	Briefs []ScheduledBrief `yaml:"briefs" validate:"dive"`
}

type PortfolioConfig struct {
	File string `yaml:"file"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=sqlite postgres none"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
	PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Driver postgres"`
}

type LoggingConfig struct {
	Level  string   `yaml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `yaml:"output" validate:"dive,oneof=console stdout file"`
	Dir    string   `yaml:"dir"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: defaults and environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.LLM.GoogleAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.AnthropicAPIKey = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.MarketData.AlphaVantageAPIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Database.PostgresDSN = v
		if c.Database.Driver == "" {
			c.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BRIEFD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "2m"
	}
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "yahoo"
	}
	if c.MarketData.Period == "" {
		c.MarketData.Period = "6mo"
	}
	if c.MarketData.Concurrency == 0 {
		c.MarketData.Concurrency = 4
	}
	if c.MarketData.RateLimit == 0 {
		c.MarketData.RateLimit = 5
	}
	if c.MarketData.Timeout == "" {
		c.MarketData.Timeout = "30s"
	}
	if c.News.Provider == "" {
		c.News.Provider = "newsapi"
	}
	if c.News.LookbackDays == 0 {
		c.News.LookbackDays = 7
	}
	if c.News.RateLimit == 0 {
		c.News.RateLimit = 2
	}
	if c.News.Timeout == "" {
		c.News.Timeout = "15s"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/briefd.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that every duration parses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config %s: failed %q constraint", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	for name, d := range map[string]string{
		"llm.timeout":         c.LLM.Timeout,
		"market_data.timeout": c.MarketData.Timeout,
		"news.timeout":        c.News.Timeout,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, d)
		}
	}
	return nil
}

// Duration parses a validated duration string, falling back to def.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
