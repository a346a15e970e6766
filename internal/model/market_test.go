package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestHistoricalSeries_EarliestLatestIgnoreOrder(t *testing.T) {
	series := HistoricalSeries{
		{Date: day("2024-03-06"), Close: Float(12)},
		{Date: day("2024-03-04"), Close: Float(10)},
		{Date: day("2024-03-07"), Close: Float(13)},
		{Date: day("2024-03-05"), Close: Float(11)},
	}

	earliest, ok := series.Earliest()
	require.True(t, ok)
	assert.Equal(t, day("2024-03-04"), earliest.Date)

	latest, ok := series.Latest()
	require.True(t, ok)
	assert.Equal(t, day("2024-03-07"), latest.Date)

	chrono := series.Chronological()
	assert.Equal(t, day("2024-03-04"), chrono[0].Date)
	assert.Equal(t, day("2024-03-07"), chrono[3].Date)
	// original untouched
	assert.Equal(t, day("2024-03-06"), series[0].Date)

	desc := series.Descending()
	assert.Equal(t, day("2024-03-07"), desc[0].Date)
}

func TestHistoricalSeries_Empty(t *testing.T) {
	var series HistoricalSeries
	_, ok := series.Earliest()
	assert.False(t, ok)
	_, ok = series.Latest()
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{fmt.Errorf("yahoo: %w", ErrNotFound), KindNotFound},
		{fmt.Errorf("decode: %w", ErrMalformedResponse), KindMalformedResponse},
		{fmt.Errorf("dial: %w", ErrUpstreamUnavailable), KindUpstreamUnavailable},
		{errors.New("connection reset"), KindUpstreamUnavailable},
		{fmt.Errorf("aggregate: %w", ErrNoUsableData), KindNoUsableData},
		{fmt.Errorf("synthesize: %w", ErrSynthesisFailure), KindSynthesisFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "err=%v", tt.err)
	}
	assert.True(t, KindNoUsableData.Fatal())
	assert.True(t, KindSynthesisFailure.Fatal())
	assert.False(t, KindNotFound.Fatal())
}

func TestRunContext_HasUsableData(t *testing.T) {
	rc := NewRunContext("r1", Query{Text: "What's the market doing?"})
	assert.False(t, rc.HasUsableData())

	rc.Query.Portfolio = map[string]any{"AAPL": 0.4}
	assert.True(t, rc.HasUsableData())

	rc = NewRunContext("r2", Query{})
	rc.Documents = append(rc.Documents, Document{Title: "X", URL: "u1"})
	assert.True(t, rc.HasUsableData())
}

func TestRunContext_AddErrorKeepsData(t *testing.T) {
	rc := NewRunContext("r1", Query{Text: "q"})
	rc.Quotes["AAPL"] = &QuoteSnapshot{Identifier: "AAPL", Price: Float(150)}
	rc.AddError("fetch market data: %s: %v", "MSFT", ErrNotFound)
	rc.AddErrors([]string{"a", "b"})

	assert.Len(t, rc.Errors, 3)
	assert.Contains(t, rc.Errors[0], "MSFT")
	assert.Contains(t, rc.Quotes, "AAPL")
}
