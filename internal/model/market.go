package model

import (
	"sort"
	"time"
)

// DayBar is one trading session of a historical series.
type DayBar struct {
	Date   time.Time `json:"date"`
	Open   *float64  `json:"open"`
	High   *float64  `json:"high"`
	Low    *float64  `json:"low"`
	Close  *float64  `json:"close"`
	Volume *float64  `json:"volume"`
}

// HistoricalSeries holds one bar per trading day. Providers store it most
// recent first; consumers must not rely on the stored order.
type HistoricalSeries []DayBar

// Earliest returns the bar with the oldest date.
func (s HistoricalSeries) Earliest() (DayBar, bool) {
	if len(s) == 0 {
		return DayBar{}, false
	}
	best := s[0]
	for _, b := range s[1:] {
		if b.Date.Before(best.Date) {
			best = b
		}
	}
	return best, true
}

// Latest returns the bar with the newest date.
func (s HistoricalSeries) Latest() (DayBar, bool) {
	if len(s) == 0 {
		return DayBar{}, false
	}
	best := s[0]
	for _, b := range s[1:] {
		if b.Date.After(best.Date) {
			best = b
		}
	}
	return best, true
}

// Chronological returns a copy sorted oldest first.
func (s HistoricalSeries) Chronological() HistoricalSeries {
	out := make(HistoricalSeries, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Descending returns a copy sorted most recent first.
func (s HistoricalSeries) Descending() HistoricalSeries {
	out := make(HistoricalSeries, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// QuoteSnapshot is the latest quote for one identifier. Every numeric field
// is nil when the upstream did not supply a usable value.
type QuoteSnapshot struct {
	Identifier    string    `json:"identifier"`
	Open          *float64  `json:"open"`
	High          *float64  `json:"high"`
	Low           *float64  `json:"low"`
	Price         *float64  `json:"price"`
	Volume        *float64  `json:"volume"`
	PreviousClose *float64  `json:"previous_close"`
	Change        *float64  `json:"change"`
	ChangePercent *float64  `json:"change_percent"`
	AsOf          time.Time `json:"as_of"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Value dereferences p, reporting whether a value was present.
func Value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
