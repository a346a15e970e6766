package recorder

import (
	"context"
	"time"
)

// QuoteRecord is the quote of one identifier as it was when a run finished.
type QuoteRecord struct {
	Identifier    string   `json:"identifier"`
	Price         *float64 `json:"price"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"change_percent"`
}

// RunRecord holds the outcome of one pipeline run.
type RunRecord struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"` // "api", "cli", "schedule:<name>", "telegram"
	Question   string        `json:"question"`
	Tickers    []string      `json:"tickers"`
	Quotes     []QuoteRecord `json:"quotes,omitempty"`
	Documents  int           `json:"documents"`
	Narrative  string        `json:"narrative,omitempty"`
	Errors     []string      `json:"errors"`
	Failed     bool          `json:"failed"`
	FatalKind  string        `json:"fatal_kind,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(ctx context.Context, rec *RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}
