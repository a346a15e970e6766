package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"
	"MarketBrief/internal/news"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxQueries bounds the search calls made per run.
	MaxQueries = 2
	// DocsPerQuery is the page size requested for each query.
	DocsPerQuery = 3
)

// BuildQueries returns the search queries for a run: one "<id> stock news"
// query per identifier in identifier order, then the question itself when
// fewer than two identifiers are known. Duplicates and blank queries are
// removed and the list is truncated to the first MaxQueries entries.
func BuildQueries(identifiers []string, question string) []string {
	candidates := make([]string, 0, len(identifiers)+1)
	for _, id := range identifiers {
		candidates = append(candidates, id+" stock news")
	}
	if len(identifiers) < 2 {
		candidates = append(candidates, question)
	}

	seen := make(map[string]bool, len(candidates))
	queries := make([]string, 0, MaxQueries)
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
		if len(queries) == MaxQueries {
			break
		}
	}
	return queries
}

// Retriever fetches and merges documents for a run.
type Retriever struct {
	searcher news.Searcher
	logger   arbor.ILogger
}

func New(searcher news.Searcher, logger arbor.ILogger) *Retriever {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Retriever{searcher: searcher, logger: logger}
}

// Retrieve runs every query concurrently and waits for all of them. Each query
// contributes at most DocsPerQuery documents, whatever the searcher returns. Results
// are concatenated in query order, documents without title and description
// are dropped, and repeats of a (title, url) pair keep the first occurrence.
// A failed query contributes no documents and one entry in the returned errors.
func (r *Retriever) Retrieve(ctx context.Context, identifiers []string, question string) ([]model.Document, []string) {
	queries := BuildQueries(identifiers, question)
	if len(queries) == 0 {
		return []model.Document{}, nil
	}

	start := time.Now()
	results := make([][]model.Document, len(queries))
	failures := make([]error, len(queries))

	g := new(errgroup.Group)
	for i, q := range queries {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					failures[i] = fmt.Errorf("search panic: %v: %w", p, model.ErrUpstreamUnavailable)
				}
			}()
			docs, err := r.searcher.Search(ctx, q, DocsPerQuery)
			if err != nil {
				failures[i] = err
				return nil
			}
			if len(docs) > DocsPerQuery {
				docs = docs[:DocsPerQuery]
			}
			results[i] = docs
			return nil
		})
	}
	_ = g.Wait()

	var errs []string
	seen := make(map[model.DocumentKey]bool)
	docs := make([]model.Document, 0, len(queries)*DocsPerQuery)
	for i, q := range queries {
		if failures[i] != nil {
			r.logger.Warn().Str("query", q).Err(failures[i]).Msg("Document search failed")
			errs = append(errs, fmt.Sprintf("documents: query %q: %v", q, failures[i]))
			continue
		}
		for _, d := range results[i] {
			if d.Empty() || seen[d.Key()] {
				continue
			}
			seen[d.Key()] = true
			docs = append(docs, d)
		}
	}

	r.logger.Info().
		Strs("queries", queries).
		Int("documents", len(docs)).
		Int("errors", len(errs)).
		Dur("elapsed", time.Since(start)).
		Msg("Documents retrieved")
	return docs, errs
}
