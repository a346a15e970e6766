package main

import (
	"context"
	"fmt"
	"time"

	"MarketBrief/internal/aggregator"
	"MarketBrief/internal/collector"
	"MarketBrief/internal/config"
	"MarketBrief/internal/extractor"
	"MarketBrief/internal/llm"
	"MarketBrief/internal/news"
	"MarketBrief/internal/pipeline"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/retriever"
	"MarketBrief/internal/synthesizer"

	"github.com/ternarybob/arbor"
)

const mockBasePrice = 100

// app holds the wired pipeline and its closable resources.
type app struct {
	controller *pipeline.Controller
	recorder   recorder.Recorder
}

func (a *app) Close() error {
	return a.recorder.Close()
}

func buildApp(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (*app, error) {
	client, err := llm.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	logger.Info().Str("provider", client.Name()).Msg("LLM client ready")

	var tickers extractor.TickerSource = client
	if cfg.LLM.Provider == "offline" {
		tickers = extractor.PatternSource{}
	}

	fetcher := buildFetcher(cfg, logger)
	col := collector.NewCollector(fetcher, cfg.MarketData.Period, cfg.MarketData.Concurrency, logger)
	if cfg.MarketData.TradingDaysOnly {
		col.Calendar = collector.NewTradingCalendar()
	}
	logger.Info().Str("source", fetcher.Name()).Str("period", cfg.MarketData.Period).Msg("Market data ready")

	rec, err := recorder.Open(cfg.Database, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Init recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	}

	controller := pipeline.New(pipeline.Deps{
		Extractor:   extractor.New(tickers, logger),
		Market:      col,
		Documents:   retriever.New(buildSearcher(cfg, logger), logger),
		Aggregator:  aggregator.New(client, logger),
		Synthesizer: synthesizer.New(client, logger),
		Recorder:    rec,
	}, logger)

	return &app{controller: controller, recorder: rec}, nil
}

func buildFetcher(cfg *config.Config, logger arbor.ILogger) collector.Fetcher {
	opts := []collector.Option{
		collector.WithProxy(cfg.Proxy, config.Duration(cfg.MarketData.Timeout, 30*time.Second)),
		collector.WithRateLimit(cfg.MarketData.RateLimit),
		collector.WithLogger(logger),
	}
	switch cfg.MarketData.Provider {
	case "alphavantage":
		return collector.NewAlphaVantageFetcher(cfg.MarketData.AlphaVantageAPIKey, opts...)
	case "mock":
		return &collector.MockFetcher{Price: mockBasePrice}
	default:
		return collector.NewYahooFetcher(opts...)
	}
}

func buildSearcher(cfg *config.Config, logger arbor.ILogger) news.Searcher {
	if cfg.News.Provider == "none" || cfg.News.APIKey == "" {
		return &news.NoopSearcher{Logger: logger}
	}
	opts := []news.ClientOption{
		news.WithLogger(logger),
		news.WithRateLimit(cfg.News.RateLimit),
		news.WithLookback(time.Duration(cfg.News.LookbackDays) * 24 * time.Hour),
	}
	if cfg.News.BaseURL != "" {
		opts = append(opts, news.WithBaseURL(cfg.News.BaseURL))
	}
	return news.NewNewsAPIClient(cfg.News.APIKey, opts...)
}
