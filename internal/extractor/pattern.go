package extractor

import (
	"context"
	"regexp"
)

var (
	cashtag   = regexp.MustCompile(`\$([A-Za-z][A-Za-z0-9]{0,5}(?:[.-][A-Za-z0-9]{1,4})?)\b`)
	qualified = regexp.MustCompile(`\b([A-Z][A-Z0-9]{0,5}[.-][A-Z]{1,4})\b`)
)

// PatternSource finds cashtags ($NVDA) and exchange qualified tokens (VOD.L)
// without a language model.
type PatternSource struct{}

func (PatternSource) ExtractTickers(ctx context.Context, question string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type hit struct {
		pos   int
		token string
	}
	var hits []hit
	for _, m := range cashtag.FindAllStringSubmatchIndex(question, -1) {
		hits = append(hits, hit{m[0], question[m[2]:m[3]]})
	}
	for _, m := range qualified.FindAllStringSubmatchIndex(question, -1) {
		if m[0] > 0 && question[m[0]-1] == '$' {
			continue
		}
		hits = append(hits, hit{m[0], question[m[2]:m[3]]})
	}
	// restore mention order across both patterns
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.token
	}
	return out, nil
}
