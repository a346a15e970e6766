package collector

import (
	"strings"
	"sync"
	"time"

	"MarketBrief/internal/model"

	"github.com/scmhub/calendar"
)

// DefaultMIC is the exchange calendar used for symbols without a known suffix.
const DefaultMIC = "xnys"

// suffixMIC maps Yahoo-style symbol suffixes to ISO 10383 market identifiers.
var suffixMIC = map[string]string{
	"L":  "xlon",
	"PA": "xpar",
	"DE": "xetr",
	"T":  "xtks",
	"HK": "xhkg",
	"TO": "xtse",
	"AX": "xasx",
	"SW": "xswx",
	"AS": "xams",
	"MI": "xmil",
}

// TradingCalendar drops bars dated on exchange holidays and weekends.
type TradingCalendar struct {
	mu        sync.Mutex
	calendars map[string]*calendar.Calendar
}

// NewTradingCalendar creates an empty calendar cache.
func NewTradingCalendar() *TradingCalendar {
	return &TradingCalendar{calendars: make(map[string]*calendar.Calendar)}
}

// MICForSymbol resolves the exchange of a symbol from its suffix.
func MICForSymbol(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i >= 0 && i < len(symbol)-1 {
		if mic, ok := suffixMIC[strings.ToUpper(symbol[i+1:])]; ok {
			return mic
		}
	}
	return DefaultMIC
}

func (t *TradingCalendar) calendarFor(mic string) *calendar.Calendar {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cal, ok := t.calendars[mic]; ok {
		return cal
	}
	cal := calendar.GetCalendar(mic)
	t.calendars[mic] = cal
	return cal
}

// IsTradingDay reports whether date was a session on the symbol's exchange.
// Without a calendar for the exchange only weekends are excluded.
func (t *TradingCalendar) IsTradingDay(symbol string, date time.Time) bool {
	cal := t.calendarFor(MICForSymbol(symbol))
	if cal == nil {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	y, m, d := date.Date()
	return cal.IsBusinessDay(time.Date(y, m, d, 12, 0, 0, 0, cal.Loc))
}

// Filter keeps only bars dated on trading days.
func (t *TradingCalendar) Filter(symbol string, series model.HistoricalSeries) model.HistoricalSeries {
	out := make(model.HistoricalSeries, 0, len(series))
	for _, b := range series {
		if t.IsTradingDay(symbol, b.Date) {
			out = append(out, b)
		}
	}
	return out
}
