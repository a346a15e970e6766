package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"MarketBrief/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols missing from Quotes and Series get generated bars around Price;
// with a zero Price they are reported as not found.
type MockFetcher struct {
	Price        float64
	Quotes       map[string]*model.QuoteSnapshot
	Series       map[string][]model.DayBar
	QuoteErrors  map[string]error
	SeriesErrors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many requests were made for symbol.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[strings.ToUpper(symbol)]
}

func (m *MockFetcher) record(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[strings.ToUpper(symbol)]++
}

func (m *MockFetcher) FetchQuote(ctx context.Context, symbol string) (*model.QuoteSnapshot, error) {
	m.record(symbol)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.QuoteErrors[symbol]; ok {
		return nil, err
	}
	if q, ok := m.Quotes[symbol]; ok {
		cp := *q
		return &cp, nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("mock quote %s: %w", symbol, model.ErrNotFound)
	}
	bars := generateMockBars(m.Price, 2)
	return &model.QuoteSnapshot{
		Identifier:    symbol,
		Open:          bars[1].Open,
		High:          bars[1].High,
		Low:           bars[1].Low,
		Price:         bars[1].Close,
		Volume:        bars[1].Volume,
		PreviousClose: bars[0].Close,
		AsOf:          bars[1].Date,
	}, nil
}

func (m *MockFetcher) FetchSeries(ctx context.Context, symbol, period string) ([]model.DayBar, error) {
	m.record(symbol)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.SeriesErrors[symbol]; ok {
		return nil, err
	}
	if s, ok := m.Series[symbol]; ok {
		return s, nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("mock series %s: %w", symbol, model.ErrNotFound)
	}
	now := time.Now()
	days := int(now.Sub(periodStart(now, period)).Hours() / 24)
	return generateMockBars(m.Price, days), nil
}

func generateMockBars(basePrice float64, count int) []model.DayBar {
	today := dateOnly(time.Now(), nil)
	bars := make([]model.DayBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.DayBar{
			Date:   today.AddDate(0, 0, -(count - 1 - i)),
			Open:   model.Float(p * 0.999),
			High:   model.Float(p * 1.005),
			Low:    model.Float(p * 0.995),
			Close:  model.Float(p),
			Volume: model.Float(1000000),
		}
	}
	return bars
}
