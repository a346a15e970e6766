package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MarketBrief/internal/model"
)

// DefaultAlphaVantageBaseURL is the Alpha Vantage query endpoint.
const DefaultAlphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage REST API.
type AlphaVantageFetcher struct {
	source
	APIKey string
	now    func() time.Time
}

// NewAlphaVantageFetcher creates a new fetcher. The free tier allows five calls per minute,
// so callers should pass WithRateLimit accordingly.
func NewAlphaVantageFetcher(apiKey string, opts ...Option) *AlphaVantageFetcher {
	return &AlphaVantageFetcher{
		source: newSource(DefaultAlphaVantageBaseURL, opts),
		APIKey: apiKey,
		now:    time.Now,
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// query runs one function call and decodes the body into a generic map,
// surfacing the API's in-band error fields.
func (f *AlphaVantageFetcher) query(ctx context.Context, function, symbol string, extra url.Values) (map[string]json.RawMessage, error) {
	params := url.Values{}
	for k, v := range extra {
		params[k] = v
	}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", f.APIKey)

	f.logger.Debug().Str("symbol", symbol).Str("function", function).Msg("Alpha Vantage request")

	body, err := f.get(ctx, f.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w: %v", model.ErrMalformedResponse, err)
	}
	if msg, ok := raw["Error Message"]; ok {
		return nil, fmt.Errorf("alphavantage: %s: %w", unquote(msg), model.ErrNotFound)
	}
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := raw[key]; ok {
			return nil, fmt.Errorf("alphavantage: %s: %w", unquote(msg), model.ErrUpstreamUnavailable)
		}
	}
	return raw, nil
}

func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

// parseNumber reads an Alpha Vantage numeric string. Unparseable input yields nil.
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (f *AlphaVantageFetcher) FetchQuote(ctx context.Context, symbol string) (*model.QuoteSnapshot, error) {
	raw, err := f.query(ctx, "GLOBAL_QUOTE", symbol, nil)
	if err != nil {
		return nil, err
	}
	var fields map[string]string
	if err := json.Unmarshal(raw["Global Quote"], &fields); err != nil {
		return nil, fmt.Errorf("alphavantage decode quote: %w: %v", model.ErrMalformedResponse, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("alphavantage: empty quote for %s: %w", symbol, model.ErrNotFound)
	}

	q := &model.QuoteSnapshot{
		Identifier:    symbol,
		Open:          parseNumber(fields["02. open"]),
		High:          parseNumber(fields["03. high"]),
		Low:           parseNumber(fields["04. low"]),
		Price:         parseNumber(fields["05. price"]),
		Volume:        parseNumber(fields["06. volume"]),
		PreviousClose: parseNumber(fields["08. previous close"]),
		Change:        parseNumber(fields["09. change"]),
		ChangePercent: parseNumber(fields["10. change percent"]),
	}
	if d, err := time.Parse("2006-01-02", fields["07. latest trading day"]); err == nil {
		q.AsOf = d
	}
	return q, nil
}

func (f *AlphaVantageFetcher) FetchSeries(ctx context.Context, symbol, period string) ([]model.DayBar, error) {
	outputSize := "compact"
	if period != "1mo" && period != "3mo" {
		outputSize = "full"
	}
	raw, err := f.query(ctx, "TIME_SERIES_DAILY_ADJUSTED", symbol, url.Values{"outputsize": {outputSize}})
	if err != nil {
		return nil, err
	}
	var days map[string]map[string]string
	if err := json.Unmarshal(raw["Time Series (Daily)"], &days); err != nil {
		return nil, fmt.Errorf("alphavantage decode series: %w: %v", model.ErrMalformedResponse, err)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("alphavantage: empty series for %s: %w", symbol, model.ErrNotFound)
	}

	cutoff := dateOnly(periodStart(f.now(), period), time.UTC)
	bars := make([]model.DayBar, 0, len(days))
	for dateStr, v := range days {
		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil || d.Before(cutoff) {
			continue
		}
		volume, ok := v["6. volume"]
		if !ok {
			volume = v["5. volume"]
		}
		bars = append(bars, model.DayBar{
			Date:   d,
			Open:   parseNumber(v["1. open"]),
			High:   parseNumber(v["2. high"]),
			Low:    parseNumber(v["3. low"]),
			Close:  parseNumber(v["4. close"]),
			Volume: parseNumber(volume),
		})
	}
	return bars, nil
}
