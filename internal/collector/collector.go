package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of fetching every identifier of a run. Identifiers
// whose quote or series could not be fetched are absent from the maps and
// have an entry in Errors.
type Result struct {
	Quotes map[string]*model.QuoteSnapshot
	Series map[string]model.HistoricalSeries
	Errors []string
}

// Collector fetches quotes and series for many identifiers concurrently.
// Only Fetcher is required; the zero value of every other field is usable.
type Collector struct {
	Fetcher     Fetcher
	Period      string
	Concurrency int
	Calendar    *TradingCalendar // optional; filters non-trading days when set
	logger      arbor.ILogger
}

// DefaultPeriod is the history window used when none is configured.
const DefaultPeriod = "6mo"

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, period string, concurrency int, logger arbor.ILogger) *Collector {
	if period == "" {
		period = DefaultPeriod
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Collector{
		Fetcher:     fetcher,
		Period:      period,
		Concurrency: concurrency,
		logger:      logger,
	}
}

// FetchAll fetches the quote and the series of every identifier. Each request
// fails on its own: a failure is recorded and the rest still complete.
// Errors are ordered by identifier position, quote before series.
func (c *Collector) FetchAll(ctx context.Context, identifiers []string) *Result {
	res := &Result{
		Quotes: make(map[string]*model.QuoteSnapshot),
		Series: make(map[string]model.HistoricalSeries),
	}
	if len(identifiers) == 0 {
		return res
	}

	start := time.Now()
	errs := make([][]string, len(identifiers))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(max(c.Concurrency, 1))
	for i, id := range identifiers {
		g.Go(func() error {
			quote, qErr := c.fetchQuote(ctx, id)
			series, sErr := c.fetchSeries(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if qErr != nil {
				errs[i] = append(errs[i], fmt.Sprintf("market data: quote for %s: %v", id, qErr))
			} else {
				res.Quotes[id] = quote
			}
			if sErr != nil {
				errs[i] = append(errs[i], fmt.Sprintf("market data: history for %s: %v", id, sErr))
			} else {
				res.Series[id] = series
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, e := range errs {
		res.Errors = append(res.Errors, e...)
	}

	c.log().Info().
		Str("provider", c.Fetcher.Name()).
		Int("identifiers", len(identifiers)).
		Int("quotes", len(res.Quotes)).
		Int("series", len(res.Series)).
		Int("errors", len(res.Errors)).
		Dur("elapsed", time.Since(start)).
		Msg("Market data fetched")
	return res
}

func (c *Collector) fetchQuote(ctx context.Context, id string) (q *model.QuoteSnapshot, err error) {
	defer recoverFetch(&err)
	raw, err := c.Fetcher.FetchQuote(ctx, id)
	if err != nil {
		c.log().Warn().Str("symbol", id).Err(err).Msg("Quote fetch failed")
		return nil, err
	}
	return NormalizeQuote(id, raw)
}

func (c *Collector) fetchSeries(ctx context.Context, id string) (s model.HistoricalSeries, err error) {
	defer recoverFetch(&err)
	bars, err := c.Fetcher.FetchSeries(ctx, id, c.period())
	if err != nil {
		c.log().Warn().Str("symbol", id).Err(err).Msg("History fetch failed")
		return nil, err
	}
	series := NormalizeSeries(bars)
	if c.Calendar != nil {
		series = c.Calendar.Filter(id, series)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no bars for %s: %w", id, model.ErrNotFound)
	}
	return series, nil
}

func (c *Collector) period() string {
	if c.Period == "" {
		return DefaultPeriod
	}
	return c.Period
}

func (c *Collector) log() arbor.ILogger {
	if c.logger == nil {
		return applog.Discard()
	}
	return c.logger
}

// recoverFetch turns a provider panic into an error for that item alone.
func recoverFetch(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("provider panic: %v: %w", r, model.ErrUpstreamUnavailable)
	}
}
