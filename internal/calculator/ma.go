package calculator

import (
	"errors"

	"MarketBrief/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateSMA20 returns the 20-session simple moving average of a daily series.
func CalculateSMA20(series model.HistoricalSeries) (float64, error) {
	return CalculateSMA(extractCloses(series), 20)
}

// extractCloses returns the available closes oldest first.
func extractCloses(series model.HistoricalSeries) []float64 {
	chrono := series.Chronological()
	closes := make([]float64, 0, len(chrono))
	for _, b := range chrono {
		if c, ok := model.Value(b.Close); ok {
			closes = append(closes, c)
		}
	}
	return closes
}
