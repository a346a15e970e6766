package news

import (
	"context"
	"strings"
	"sync"

	"MarketBrief/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// Searcher finds documents relevant to a free text query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.Document, error)
}

// NoopSearcher returns no documents. It is used when no news API key is configured.
type NoopSearcher struct {
	Logger arbor.ILogger
	once   sync.Once
}

func (s *NoopSearcher) Search(ctx context.Context, query string, _ int) ([]model.Document, error) {
	s.once.Do(func() {
		if s.Logger != nil {
			s.Logger.Warn().Msg("News search disabled: no API key configured, skipping document retrieval")
		}
	})
	return []model.Document{}, ctx.Err()
}

// plainText strips markup from s and collapses whitespace.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
