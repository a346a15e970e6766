package calculator

import (
	"errors"
	"math"

	"MarketBrief/internal/model"
)

// CalculatePeriodRange scans every bar of the series and returns the highest high and lowest low.
func CalculatePeriodRange(series model.HistoricalSeries) (high, low float64, err error) {
	high = math.Inf(-1)
	low = math.Inf(1)
	seen := false
	for _, b := range series {
		if h, ok := model.Value(b.High); ok && h > high {
			high = h
			seen = true
		}
		if l, ok := model.Value(b.Low); ok && l < low {
			low = l
			seen = true
		}
	}
	if !seen || math.IsInf(high, 0) || math.IsInf(low, 0) {
		return 0, 0, errors.New("no high/low data in series")
	}
	return high, low, nil
}

// CalculateRangePosition returns where the current price sits within the range (0.0~1.0).
func CalculateRangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
