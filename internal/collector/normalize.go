package collector

import (
	"fmt"
	"math"

	"MarketBrief/internal/calculator"
	"MarketBrief/internal/model"
)

func finite(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return p
}

// NormalizeQuote validates a provider quote. Non-finite numbers become nil and
// a missing change is derived from price and previous close. A quote without a
// price is rejected.
func NormalizeQuote(symbol string, q *model.QuoteSnapshot) (*model.QuoteSnapshot, error) {
	if q == nil {
		return nil, fmt.Errorf("quote for %s: %w", symbol, model.ErrMalformedResponse)
	}
	out := &model.QuoteSnapshot{
		Identifier:    symbol,
		Open:          finite(q.Open),
		High:          finite(q.High),
		Low:           finite(q.Low),
		Price:         finite(q.Price),
		Volume:        finite(q.Volume),
		PreviousClose: finite(q.PreviousClose),
		Change:        finite(q.Change),
		ChangePercent: finite(q.ChangePercent),
		AsOf:          q.AsOf,
	}
	if out.Price == nil {
		return nil, fmt.Errorf("quote for %s has no price: %w", symbol, model.ErrMalformedResponse)
	}
	if out.Change == nil || out.ChangePercent == nil {
		change, pct := calculator.CalculateQuoteChange(out.Price, out.PreviousClose)
		if out.Change == nil {
			out.Change = change
		}
		if out.ChangePercent == nil {
			out.ChangePercent = pct
		}
	}
	return out, nil
}

// NormalizeSeries returns one bar per calendar date, most recent first.
// Bars without any price are dropped and a later duplicate date replaces an earlier one.
func NormalizeSeries(bars []model.DayBar) model.HistoricalSeries {
	byDate := make(map[string]int, len(bars))
	out := make(model.HistoricalSeries, 0, len(bars))
	for _, b := range bars {
		b.Open, b.High, b.Low, b.Close, b.Volume = finite(b.Open), finite(b.High), finite(b.Low), finite(b.Close), finite(b.Volume)
		if b.Open == nil && b.High == nil && b.Low == nil && b.Close == nil {
			continue // null session (holiday, halt)
		}
		b.Date = dateOnly(b.Date, nil)
		key := b.Date.Format("2006-01-02")
		if i, ok := byDate[key]; ok {
			out[i] = b
			continue
		}
		byDate[key] = len(out)
		out = append(out, b)
	}
	return out.Descending()
}
