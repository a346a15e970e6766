package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"MarketBrief/internal/portfolio"
)

// MaxMessageLength is the Telegram limit for one message, in characters.
const MaxMessageLength = 4096

// FormatBrief formats a successful run for Telegram.
func FormatBrief(title, question, narrative string, errs []string, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n", html.EscapeString(title), at.Format("2006-01-02 15:04")))
	if question != "" {
		b.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(question)))
	}
	b.WriteString("\n")
	b.WriteString(html.EscapeString(narrative))
	b.WriteString("\n")
	if len(errs) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ <b>%d data issue(s):</b>\n", len(errs)))
		for _, e := range errs {
			b.WriteString("• " + html.EscapeString(e) + "\n")
		}
	}
	return b.String()
}

// FormatFailure formats a run that produced no brief.
func FormatFailure(title, question, kind string, errs []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ <b>%s failed</b> (%s)\n", html.EscapeString(title), html.EscapeString(kind)))
	if question != "" {
		b.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(question)))
	}
	b.WriteString("\n")
	for _, e := range errs {
		b.WriteString("• " + html.EscapeString(e) + "\n")
	}
	return b.String()
}

// FormatPortfolio lists the loaded portfolio context.
func FormatPortfolio(p map[string]any) string {
	if len(p) == 0 {
		return "📦 <b>Portfolio</b>\n\nNo portfolio loaded."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Portfolio</b>\n\n")
	for _, k := range portfolio.Keys(p) {
		b.WriteString(fmt.Sprintf("%s: %s\n", html.EscapeString(k), html.EscapeString(fmt.Sprint(p[k]))))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /brief &lt;question&gt; - market brief for a question\n" +
		"• /portfolio - show the loaded portfolio\n" +
		"• /portfolio set &lt;json&gt; - replace the portfolio\n" +
		"• /help - this message\n" +
		"Any other text is answered as a question."
}

// SplitMessage breaks text into chunks of at most limit characters,
// preferring to cut at line breaks.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
