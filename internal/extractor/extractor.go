package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	applog "MarketBrief/internal/logger"

	"github.com/ternarybob/arbor"
)

// TickerSource proposes raw ticker tokens for a question.
type TickerSource interface {
	ExtractTickers(ctx context.Context, question string) ([]string, error)
}

var identifierPattern = regexp.MustCompile(`^\^?[A-Z0-9]{1,6}([.-][A-Z0-9]{1,4})?$`)

// Normalize canonicalizes one token: trimmed, leading "$" removed, upper-cased.
// It reports false for tokens that are not well-formed identifiers.
func Normalize(token string) (string, bool) {
	t := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(token), "$"))
	if !identifierPattern.MatchString(t) {
		return "", false
	}
	return t, true
}

// Extractor turns a question into an ordered, duplicate-free identifier list.
type Extractor struct {
	source TickerSource
	logger arbor.ILogger
}

func New(source TickerSource, logger arbor.ILogger) *Extractor {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Extractor{source: source, logger: logger}
}

// Extract returns identifiers in first mention order. An empty question yields
// an empty list without consulting the source. Source failures are returned
// wrapped; the list is then empty.
func (e *Extractor) Extract(ctx context.Context, question string) ([]string, error) {
	if strings.TrimSpace(question) == "" {
		return []string{}, nil
	}
	raw, err := e.source.ExtractTickers(ctx, question)
	if err != nil {
		return []string{}, fmt.Errorf("extract entities: %w", err)
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, token := range raw {
		id, ok := Normalize(token)
		if !ok {
			e.logger.Debug().Str("token", token).Msg("Dropped invalid ticker token")
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
