package model

import (
	"fmt"
	"strings"
	"time"
)

// Query is the immutable input of one pipeline run.
type Query struct {
	Text      string         `json:"query_text"`
	Portfolio map[string]any `json:"portfolio_data"`
	Source    string         `json:"-"` // where the run was requested from, for history only
}

// TickerFacts are the derived, human-readable facts for one identifier.
type TickerFacts struct {
	Identifier   string   `json:"identifier"`
	Quote        string   `json:"quote"`
	Trend        string   `json:"trend"`
	PeriodReturn string   `json:"period_return"`
	Indicators   []string `json:"indicators,omitempty"`
}

// Lines returns the non-empty fact lines in display order.
func (f TickerFacts) Lines() []string {
	lines := make([]string, 0, 2+len(f.Indicators))
	if f.Quote != "" {
		lines = append(lines, f.Quote)
	}
	if f.Trend != "" {
		lines = append(lines, f.Trend)
	}
	return append(lines, f.Indicators...)
}

// NarrativeInput is what the aggregator hands to the synthesizer.
type NarrativeInput struct {
	Question       string
	Portfolio      map[string]any
	PortfolioText  string
	Identifiers    []string
	Quotes         map[string]*QuoteSnapshot
	Series         map[string]HistoricalSeries
	Documents      []Document
	Facts          []TickerFacts
	ContextText    string
	Digest         string
	DigestFallback bool
}

// RunContext is the per-request record threaded through every stage. It is
// created by the pipeline controller and never shared between runs.
type RunContext struct {
	RunID       string
	Query       Query
	StartedAt   time.Time
	Identifiers []string
	Quotes      map[string]*QuoteSnapshot
	Series      map[string]HistoricalSeries
	Documents   []Document
	Errors      []string
	Input       *NarrativeInput
	Narrative   string
}

// NewRunContext creates an empty context for q.
func NewRunContext(runID string, q Query) *RunContext {
	return &RunContext{
		RunID:     runID,
		Query:     q,
		StartedAt: time.Now(),
		Quotes:    make(map[string]*QuoteSnapshot),
		Series:    make(map[string]HistoricalSeries),
	}
}

// AddError records a non-fatal error.
func (rc *RunContext) AddError(format string, args ...any) {
	rc.Errors = append(rc.Errors, fmt.Sprintf(format, args...))
}

// AddErrors records several non-fatal errors.
func (rc *RunContext) AddErrors(errs []string) {
	rc.Errors = append(rc.Errors, errs...)
}

// HasUsableData reports whether anything could feed the narrative.
func (rc *RunContext) HasUsableData() bool {
	return len(rc.Identifiers) > 0 ||
		len(rc.Quotes) > 0 ||
		len(rc.Series) > 0 ||
		len(rc.Documents) > 0 ||
		len(rc.Query.Portfolio) > 0
}

// Question returns the trimmed question text.
func (rc *RunContext) Question() string {
	return strings.TrimSpace(rc.Query.Text)
}
