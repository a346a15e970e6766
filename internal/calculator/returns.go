package calculator

import (
	"MarketBrief/internal/model"
)

// ReturnStatus tells whether a period return could be computed.
type ReturnStatus string

const (
	ReturnOK           ReturnStatus = "ok"
	ReturnInsufficient ReturnStatus = "insufficient data"
	ReturnUnavailable  ReturnStatus = "unavailable"
)

// PeriodReturn is the percentage move between the earliest and latest closes of a series.
type PeriodReturn struct {
	Status        ReturnStatus
	Percent       float64
	Earliest      model.DayBar
	Latest        model.DayBar
	EarliestClose float64
	LatestClose   float64
}

// CalculatePeriodReturn computes (latestClose - earliestClose) / earliestClose * 100
// using the earliest and latest dates present, whatever the stored order.
// Fewer than two bars is ReturnInsufficient; a missing close or a zero
// earliest close is ReturnUnavailable.
func CalculatePeriodReturn(series model.HistoricalSeries) PeriodReturn {
	if len(series) < 2 {
		return PeriodReturn{Status: ReturnInsufficient}
	}
	earliest, _ := series.Earliest()
	latest, _ := series.Latest()
	r := PeriodReturn{Earliest: earliest, Latest: latest}
	if !earliest.Date.Before(latest.Date) {
		r.Status = ReturnInsufficient
		return r
	}

	first, okFirst := model.Value(earliest.Close)
	last, okLast := model.Value(latest.Close)
	if !okFirst || !okLast || first == 0 {
		r.Status = ReturnUnavailable
		return r
	}
	r.Status = ReturnOK
	r.EarliestClose = first
	r.LatestClose = last
	r.Percent = (last - first) / first * 100
	return r
}

// CalculateQuoteChange derives change and change percent from price and previous close.
// A missing input yields nil; a zero previous close leaves the percent nil.
func CalculateQuoteChange(price, previousClose *float64) (change, changePercent *float64) {
	p, okP := model.Value(price)
	pc, okPC := model.Value(previousClose)
	if !okP || !okPC {
		return nil, nil
	}
	change = model.Float(p - pc)
	if pc == 0 {
		return change, nil
	}
	return change, model.Float((p - pc) / pc * 100)
}
