package aggregator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketBrief/internal/llm"
	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"

	"github.com/ternarybob/arbor"
)

// Summarizer is the text generation boundary used for the digest.
type Summarizer interface {
	Summarize(ctx context.Context, system, instruction string) (string, error)
}

const analysisPrompt = "You are a highly skilled financial analyst. Your primary goal is to analyze the provided financial data " +
	"(real-time quotes, historical trends and recent news) in the context of the user's query. " +
	"If 'Portfolio Initial Data' is provided, analyze the performance of each stock within that portfolio " +
	"relative to its allocation, and assess the portfolio's overall health or recent activity. " +
	"Relate individual stock performance and news to their impact on the portfolio where relevant.\n\n" +
	"Focus on connecting different data points to provide a comprehensive view. " +
	"For historical data, identify significant price movements or volume changes. " +
	"For news, explain its potential impact on relevant companies or the broader market. " +
	"If any data points are missing or indicate issues, mention them. " +
	"Return a clear, narrative summary of your analysis that is directly relevant to the user's question."

const analysisInstruction = "Provide a comprehensive analysis based on the data above."

// noFacts is the fallback digest when no identifier produced any fact.
const noFacts = "No per-ticker market data available."

// Aggregator merges everything a run collected into the synthesizer input.
type Aggregator struct {
	summarizer Summarizer
	logger     arbor.ILogger
}

func New(summarizer Summarizer, logger arbor.ILogger) *Aggregator {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Aggregator{summarizer: summarizer, logger: logger}
}

// Aggregate builds the synthesizer input from rc. A failed or empty digest call falls back to the
// joined facts and is recorded as a non-fatal error on rc.
func (a *Aggregator) Aggregate(ctx context.Context, rc *model.RunContext) *model.NarrativeInput {
	in := &model.NarrativeInput{
		Question:      rc.Question(),
		Portfolio:     rc.Query.Portfolio,
		PortfolioText: PortfolioText(rc.Query.Portfolio),
		Identifiers:   rc.Identifiers,
		Quotes:        rc.Quotes,
		Series:        rc.Series,
		Documents:     rc.Documents,
		Facts:         BuildFacts(rc.Identifiers, rc.Quotes, rc.Series),
	}
	in.ContextText = ContextText(in)

	start := time.Now()
	digest, err := a.summarize(ctx, in.ContextText)
	if err != nil {
		rc.AddError("aggregate: digest: %v", err)
		a.logger.Warn().Err(err).Msg("Digest generation failed, using derived facts")
		digest = JoinFacts(in.Facts)
		if digest == "" {
			digest = noFacts
		}
		in.DigestFallback = true
	}
	in.Digest = digest

	a.logger.Debug().
		Int("facts", len(in.Facts)).
		Int("context_length", len(in.ContextText)).
		Bool("digest_fallback", in.DigestFallback).
		Dur("elapsed", time.Since(start)).
		Msg("Context aggregated")

	return in
}

func (a *Aggregator) summarize(ctx context.Context, contextText string) (string, error) {
	if a.summarizer == nil {
		return "", fmt.Errorf("no summarizer configured")
	}
	system := analysisPrompt + "\n\n" + llm.DataMarker + "\n" + contextText
	out, err := a.summarizer.Summarize(ctx, system, analysisInstruction)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("empty digest: %w", model.ErrMalformedResponse)
	}
	return out, nil
}
