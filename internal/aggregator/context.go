package aggregator

import (
	"encoding/json"
	"fmt"
	"strings"

	"MarketBrief/internal/model"
)

// RecentSessions is how many of the latest bars per identifier go into the context text.
const RecentSessions = 5

// PortfolioText renders the portfolio as indented JSON with sorted keys.
// An empty portfolio renders as an empty string.
func PortfolioText(p map[string]any) string {
	if len(p) == 0 {
		return ""
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", p)
	}
	return string(b)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// ContextText lays out everything collected for a run as plain text.
func ContextText(in *model.NarrativeInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User Question: %s\n\n", in.Question)

	if in.PortfolioText != "" {
		fmt.Fprintf(&b, "Portfolio Initial Data:\n%s\n\n", in.PortfolioText)
	}

	if len(in.Quotes) > 0 {
		b.WriteString("Real-time Quotes:\n")
		for _, id := range in.Identifiers {
			q, ok := in.Quotes[id]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  %s: Price=%s, Change=%s, Change Percent=%s, Open=%s, High=%s, Low=%s, Previous Close=%s, Volume=%s\n",
				id, FormatNumber(q.Price), FormatNumber(q.Change), formatPercent(q.ChangePercent),
				FormatNumber(q.Open), FormatNumber(q.High), FormatNumber(q.Low),
				FormatNumber(q.PreviousClose), formatVolume(q.Volume))
		}
		b.WriteString("\n")
	}

	if len(in.Series) > 0 {
		fmt.Fprintf(&b, "Historical Daily Data (latest %d sessions):\n", RecentSessions)
		for _, id := range in.Identifiers {
			s, ok := in.Series[id]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  %s:\n", id)
			recent := s.Descending()
			if len(recent) > RecentSessions {
				recent = recent[:RecentSessions]
			}
			for _, d := range recent {
				fmt.Fprintf(&b, "    %s: Open=%s, High=%s, Low=%s, Close=%s, Volume=%s\n",
					d.Date.Format(dateLayout), FormatNumber(d.Open), FormatNumber(d.High),
					FormatNumber(d.Low), FormatNumber(d.Close), formatVolume(d.Volume))
			}
		}
		b.WriteString("\n")
	}

	if len(in.Facts) > 0 {
		b.WriteString("Derived Facts:\n")
		for _, f := range in.Facts {
			for _, line := range f.Lines() {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
		b.WriteString("\n")
	}

	if len(in.Documents) > 0 {
		b.WriteString("Recent News:\n")
		for _, d := range in.Documents {
			fmt.Fprintf(&b, "  - Title: %s\n    Source: %s\n    Description: %s\n    URL: %s\n",
				orNA(d.Title), orNA(d.Source), orNA(d.Description), orNA(d.URL))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
