package retriever

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"MarketBrief/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]model.Document
	errs    map[string]error
	queries []string
	limits  []int

	// ignoreLimit returns every stored document regardless of maxResults.
	ignoreLimit bool
}

func (f *fakeSearcher) Search(_ context.Context, query string, maxResults int) ([]model.Document, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, maxResults)
	f.mu.Unlock()
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	docs := f.results[query]
	if !f.ignoreLimit && len(docs) > maxResults {
		docs = docs[:maxResults]
	}
	return docs, nil
}

func TestBuildQueries(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		question string
		want     []string
	}{
		{"no identifiers falls back to question", nil, "What's the market doing?", []string{"What's the market doing?"}},
		{"one identifier adds question", []string{"AAPL"}, "How is AAPL?", []string{"AAPL stock news", "How is AAPL?"}},
		{"two identifiers skip question", []string{"AAPL", "MSFT"}, "compare", []string{"AAPL stock news", "MSFT stock news"}},
		{"cap keeps identifier order", []string{"TSLA", "NVDA", "AMD"}, "chips", []string{"TSLA stock news", "NVDA stock news"}},
		{"blank question dropped", nil, "   ", []string{}},
		{"question equal to ticker query", []string{"AAPL"}, "AAPL stock news", []string{"AAPL stock news"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQueries(tt.ids, tt.question))
		})
	}
}

func TestRetrieve_DedupAcrossQueries(t *testing.T) {
	shared := model.Document{Source: "A", Title: "X", URL: "u1"}
	f := &fakeSearcher{results: map[string][]model.Document{
		"AAPL stock news": {shared, {Title: "Y", URL: "u2"}},
		"MSFT stock news": {{Source: "B", Title: "X", URL: "u1", Description: "other copy"}, {Title: "Z", URL: "u3"}},
	}}

	docs, errs := New(f, nil).Retrieve(context.Background(), []string{"AAPL", "MSFT"}, "compare")
	assert.Empty(t, errs)
	require.Len(t, docs, 3)
	assert.Equal(t, shared, docs[0])
	assert.Equal(t, "Y", docs[1].Title)
	assert.Equal(t, "Z", docs[2].Title)
}

func TestRetrieve_DropsEmptyDocuments(t *testing.T) {
	f := &fakeSearcher{results: map[string][]model.Document{
		"market": {{URL: "u0"}, {Description: "only description", URL: "u1"}},
	}}
	docs, _ := New(f, nil).Retrieve(context.Background(), nil, "market")
	require.Len(t, docs, 1)
	assert.Equal(t, "only description", docs[0].Description)
}

func TestRetrieve_QueryFailureIsIsolated(t *testing.T) {
	f := &fakeSearcher{
		results: map[string][]model.Document{"How is AAPL?": {{Title: "T", URL: "u"}}},
		errs:    map[string]error{"AAPL stock news": model.ErrUpstreamUnavailable},
	}
	docs, errs := New(f, nil).Retrieve(context.Background(), []string{"AAPL"}, "How is AAPL?")
	require.Len(t, docs, 1)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "AAPL stock news")
}

func TestRetrieve_NoQueries(t *testing.T) {
	f := &fakeSearcher{}
	docs, errs := New(f, nil).Retrieve(context.Background(), nil, "")
	assert.Empty(t, docs)
	assert.Empty(t, errs)
	assert.Empty(t, f.queries)
}

func TestRetrieve_CapsDocumentsPerQuery(t *testing.T) {
	many := make([]model.Document, 6)
	for i := range many {
		many[i] = model.Document{Title: fmt.Sprintf("story %d", i), URL: fmt.Sprintf("u%d", i)}
	}
	f := &fakeSearcher{
		results:     map[string][]model.Document{"AAPL stock news": many, "MSFT stock news": many[3:]},
		ignoreLimit: true,
	}

	docs, errs := New(f, nil).Retrieve(context.Background(), []string{"AAPL", "MSFT"}, "compare")
	assert.Empty(t, errs)
	assert.Equal(t, []int{DocsPerQuery, DocsPerQuery}, f.limits)
	require.Len(t, docs, 2*DocsPerQuery)
	assert.Equal(t, "story 0", docs[0].Title)
	assert.Equal(t, "story 2", docs[2].Title)
	assert.Equal(t, "story 3", docs[3].Title)
	assert.Equal(t, "story 5", docs[5].Title)
}
