package llm

import (
	"context"
	"strings"
)

// OfflineClient is a deterministic Client that makes no network calls.
// It finds no tickers itself; pair it with a pattern based extractor.
// Summarize returns the system prompt's data section unchanged.
type OfflineClient struct{}

func NewOfflineClient() *OfflineClient { return &OfflineClient{} }

func (c *OfflineClient) Name() string { return "offline" }

func (c *OfflineClient) ExtractTickers(ctx context.Context, _ string) ([]string, error) {
	return nil, ctx.Err()
}

// DataMarker separates prompt instructions from the data they refer to.
const DataMarker = "--- Data for Analysis ---"

func (c *OfflineClient) Summarize(ctx context.Context, system, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if i := strings.Index(system, DataMarker); i >= 0 {
		system = system[i+len(DataMarker):]
	}
	return strings.TrimSpace(system), nil
}
