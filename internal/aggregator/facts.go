package aggregator

import (
	"fmt"
	"strings"

	"MarketBrief/internal/calculator"
	"MarketBrief/internal/model"
)

// Unavailable marks a number the upstream did not supply.
const Unavailable = "unavailable"

const dateLayout = "2006-01-02"

// FormatNumber renders p with two decimals, or Unavailable when p is nil.
func FormatNumber(p *float64) string {
	v, ok := model.Value(p)
	if !ok {
		return Unavailable
	}
	return fmt.Sprintf("%.2f", v)
}

func formatVolume(p *float64) string {
	v, ok := model.Value(p)
	if !ok {
		return Unavailable
	}
	return fmt.Sprintf("%.0f", v)
}

func formatPercent(p *float64) string {
	if p == nil {
		return Unavailable
	}
	return FormatNumber(p) + "%"
}

// QuoteFact describes the latest quote of id.
func QuoteFact(id string, q *model.QuoteSnapshot) string {
	if q == nil {
		return fmt.Sprintf("Real-time quote for %s: %s", id, Unavailable)
	}
	return fmt.Sprintf("Real-time quote for %s: Price=%s, Change=%s (%s)",
		id, FormatNumber(q.Price), FormatNumber(q.Change), formatPercent(q.ChangePercent))
}

// TrendFact describes the period return of id, with the return rendered
// separately for structured consumers.
func TrendFact(id string, series model.HistoricalSeries) (fact, periodReturn string) {
	if series == nil {
		return fmt.Sprintf("Historical trend for %s: %s.", id, Unavailable), Unavailable
	}
	r := calculator.CalculatePeriodReturn(series)
	switch r.Status {
	case calculator.ReturnOK:
		pct := fmt.Sprintf("%.2f%%", r.Percent)
		return fmt.Sprintf("Historical trend for %s (%s to %s): Price changed from %.2f to %.2f (%s).",
			id, r.Earliest.Date.Format(dateLayout), r.Latest.Date.Format(dateLayout),
			r.EarliestClose, r.LatestClose, pct), pct
	case calculator.ReturnUnavailable:
		return fmt.Sprintf("Historical trend for %s (%s to %s): period return %s.",
			id, r.Earliest.Date.Format(dateLayout), r.Latest.Date.Format(dateLayout), Unavailable), Unavailable
	default:
		return fmt.Sprintf("Historical trend for %s: %s.", id, calculator.ReturnInsufficient), string(calculator.ReturnInsufficient)
	}
}

// indicatorFacts adds the range, moving average and RSI lines the series is long enough for.
func indicatorFacts(id string, series model.HistoricalSeries, q *model.QuoteSnapshot) []string {
	var out []string
	if high, low, err := calculator.CalculatePeriodRange(series); err == nil {
		line := fmt.Sprintf("Period range for %s: high=%.2f, low=%.2f", id, high, low)
		if latest, ok := series.Latest(); ok {
			current := latest.Close
			if q != nil && q.Price != nil {
				current = q.Price
			}
			if c, ok := model.Value(current); ok {
				if pos, err := calculator.CalculateRangePosition(c, high, low); err == nil {
					line += fmt.Sprintf(", position=%.0f%%", pos*100)
				}
			}
		}
		out = append(out, line)
	}
	if sma, err := calculator.CalculateSMA20(series); err == nil {
		out = append(out, fmt.Sprintf("20-day SMA for %s: %.2f", id, sma))
	}
	if rsi, err := calculator.CalculateRSI(series, 14); err == nil {
		out = append(out, fmt.Sprintf("14-day RSI for %s: %.1f", id, rsi))
	}
	return out
}

// BuildFacts derives the facts of every identifier in identifier order.
func BuildFacts(identifiers []string, quotes map[string]*model.QuoteSnapshot, series map[string]model.HistoricalSeries) []model.TickerFacts {
	facts := make([]model.TickerFacts, 0, len(identifiers))
	for _, id := range identifiers {
		q := quotes[id]
		s := series[id]
		f := model.TickerFacts{
			Identifier: id,
			Quote:      QuoteFact(id, q),
		}
		f.Trend, f.PeriodReturn = TrendFact(id, s)
		if len(s) > 0 {
			f.Indicators = indicatorFacts(id, s, q)
		}
		facts = append(facts, f)
	}
	return facts
}

// JoinFacts concatenates every fact line, one per line.
func JoinFacts(facts []model.TickerFacts) string {
	var lines []string
	for _, f := range facts {
		lines = append(lines, f.Lines()...)
	}
	return strings.Join(lines, "\n")
}
