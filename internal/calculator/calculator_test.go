package calculator

import (
	"math"
	"testing"
	"time"

	"MarketBrief/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// descending builds a most-recent-first series from oldest-first closes.
func descending(closes ...float64) model.HistoricalSeries {
	s := make(model.HistoricalSeries, len(closes))
	for i, c := range closes {
		s[len(closes)-1-i] = model.DayBar{
			Date:  start.AddDate(0, 0, i),
			High:  model.Float(c + 1),
			Low:   model.Float(c - 1),
			Close: model.Float(c),
		}
	}
	return s
}

func TestCalculatePeriodReturn(t *testing.T) {
	r := CalculatePeriodReturn(descending(100, 105, 110))
	require.Equal(t, ReturnOK, r.Status)
	assert.InDelta(t, 10.0, r.Percent, 1e-9)
	assert.Equal(t, start, r.Earliest.Date)
	assert.Equal(t, start.AddDate(0, 0, 2), r.Latest.Date)
	assert.Equal(t, 100.0, r.EarliestClose)
	assert.Equal(t, 110.0, r.LatestClose)
}

func TestCalculatePeriodReturn_OrderIndependent(t *testing.T) {
	s := descending(100, 90, 80)
	asc := s.Chronological()
	assert.InDelta(t, CalculatePeriodReturn(s).Percent, CalculatePeriodReturn(asc).Percent, 1e-12)
	assert.InDelta(t, -20.0, CalculatePeriodReturn(asc).Percent, 1e-9)
}

func TestCalculatePeriodReturn_Guards(t *testing.T) {
	assert.Equal(t, ReturnInsufficient, CalculatePeriodReturn(nil).Status)
	assert.Equal(t, ReturnInsufficient, CalculatePeriodReturn(descending(42)).Status)

	zero := CalculatePeriodReturn(descending(0, 5))
	assert.Equal(t, ReturnUnavailable, zero.Status)
	assert.False(t, math.IsInf(zero.Percent, 0))
	assert.False(t, math.IsNaN(zero.Percent))

	missing := descending(10, 12)
	missing[0].Close = nil
	assert.Equal(t, ReturnUnavailable, CalculatePeriodReturn(missing).Status)
}

func TestCalculateQuoteChange(t *testing.T) {
	change, pct := CalculateQuoteChange(model.Float(150), model.Float(145))
	require.NotNil(t, change)
	require.NotNil(t, pct)
	assert.InDelta(t, 5.0, *change, 1e-9)
	assert.InDelta(t, 3.448275862, *pct, 1e-6)

	change, pct = CalculateQuoteChange(model.Float(10), model.Float(0))
	require.NotNil(t, change)
	assert.Nil(t, pct)

	change, pct = CalculateQuoteChange(nil, model.Float(1))
	assert.Nil(t, change)
	assert.Nil(t, pct)
}

func TestCalculatePeriodRange(t *testing.T) {
	high, low, err := CalculatePeriodRange(descending(10, 30, 20))
	require.NoError(t, err)
	assert.Equal(t, 31.0, high)
	assert.Equal(t, 9.0, low)

	_, _, err = CalculatePeriodRange(model.HistoricalSeries{{Date: start}})
	assert.Error(t, err)
}

func TestCalculateRangePosition(t *testing.T) {
	pos, err := CalculateRangePosition(15, 20, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos, 1e-9)

	pos, _ = CalculateRangePosition(25, 20, 10)
	assert.Equal(t, 1.0, pos)

	pos, _ = CalculateRangePosition(7, 7, 7)
	assert.Equal(t, 0.5, pos)

	_, err = CalculateRangePosition(1, 1, 2)
	assert.Error(t, err)
}

func TestCalculateSMA20(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	sma, err := CalculateSMA20(descending(closes...))
	require.NoError(t, err)
	// mean of 6..25
	assert.InDelta(t, 15.5, sma, 1e-9)

	_, err = CalculateSMA20(descending(1, 2, 3))
	assert.Error(t, err)
}

func TestCalculateRSI(t *testing.T) {
	up := make([]float64, 20)
	for i := range up {
		up[i] = float64(100 + i)
	}
	rsi, err := CalculateRSI(descending(up...), 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)

	_, err = CalculateRSI(descending(1, 2, 3), 14)
	assert.Error(t, err)

	_, err = CalculateRSI(descending(up...), 0)
	assert.Error(t, err)
}
