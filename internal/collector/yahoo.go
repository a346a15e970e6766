package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"MarketBrief/internal/model"
)

// DefaultYahooBaseURL is the base URL of the Yahoo Finance chart API.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	source
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(opts ...Option) *YahooFetcher {
	return &YahooFetcher{
		source: newSource(DefaultYahooBaseURL, opts),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Every numeric is a pointer because Yahoo emits null for missing sessions.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string   `json:"symbol"`
				ExchangeTimezoneName string   `json:"exchangeTimezoneName"`
				RegularMarketPrice   *float64 `json:"regularMarketPrice"`
				RegularMarketTime    int64    `json:"regularMarketTime"`
				RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
				RegularMarketVolume  *float64 `json:"regularMarketVolume"`
				PreviousClose        *float64 `json:"previousClose"`
				ChartPreviousClose   *float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.baseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	f.logger.Debug().Str("symbol", symbol).Str("range", rng).Msg("Yahoo chart request")

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w: %v", model.ErrMalformedResponse, err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo api error: %s: %w", chart.Chart.Error.Description, model.ErrNotFound)
		}
		return nil, fmt.Errorf("yahoo api error: %s: %w", chart.Chart.Error.Description, model.ErrUpstreamUnavailable)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned: %w", model.ErrNotFound)
	}
	return &chart, nil
}

// bars flattens the first chart result into day bars dated in the exchange timezone.
func (c *yahooChart) bars() []model.DayBar {
	result := c.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	loc := time.UTC
	if tz := result.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.DayBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, model.DayBar{
			Date:   dateOnly(time.Unix(ts, 0), loc),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}
	return bars
}

// FetchQuote reads the regular market fields plus the last two sessions of a 5d chart.
func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (*model.QuoteSnapshot, error) {
	chart, err := f.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return nil, err
	}
	meta := chart.Chart.Result[0].Meta
	series := NormalizeSeries(chart.bars())

	q := &model.QuoteSnapshot{
		Identifier: symbol,
		Price:      meta.RegularMarketPrice,
		High:       meta.RegularMarketDayHigh,
		Low:        meta.RegularMarketDayLow,
		Volume:     meta.RegularMarketVolume,
	}
	if meta.RegularMarketTime > 0 {
		q.AsOf = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	if len(series) > 0 {
		last := series[0]
		q.Open = last.Open
		if q.Price == nil {
			q.Price = last.Close
		}
		if q.High == nil {
			q.High = last.High
		}
		if q.Low == nil {
			q.Low = last.Low
		}
		if q.AsOf.IsZero() {
			q.AsOf = last.Date
		}
	}
	switch {
	case len(series) > 1 && series[1].Close != nil:
		q.PreviousClose = series[1].Close
	case meta.PreviousClose != nil:
		q.PreviousClose = meta.PreviousClose
	default:
		q.PreviousClose = meta.ChartPreviousClose
	}
	return q, nil
}

// FetchSeries returns daily bars covering period (1mo, 3mo, 6mo, 1y, 2y).
func (f *YahooFetcher) FetchSeries(ctx context.Context, symbol, period string) ([]model.DayBar, error) {
	chart, err := f.fetchChart(ctx, symbol, "1d", period)
	if err != nil {
		return nil, err
	}
	return chart.bars(), nil
}
