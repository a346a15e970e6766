package synthesizer

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

// Summarizer is the text generation boundary used for the final brief.
type Summarizer interface {
	Summarize(ctx context.Context, system, instruction string) (string, error)
}

const briefPrompt = "You are a helpful and highly detailed financial analyst. Your goal is to generate a comprehensive, " +
	"insightful, and professional market brief based on the user's query and all available financial data. " +
	"If 'Portfolio Data' is provided and relevant to the query, thoroughly analyze the individual stock performance " +
	"within the portfolio and its overall impact.\n\n" +
	"Synthesize real-time stock quotes, historical performance and recent news to provide a holistic overview. " +
	"Highlight key financial metrics, significant changes, emerging trends, and important news developments " +
	"relevant to the user's question or specific companies mentioned. " +
	"Discuss both positive and negative implications where applicable. " +
	"If no specific tickers were found, discuss general market sentiment or relevant economic trends based on the query " +
	"if possible, or clearly state the limitations. " +
	"Ensure the output is well-structured, easy to understand, and provides a clear summary of the market landscape " +
	"pertinent to the query."

const briefInstruction = "Generate the detailed and comprehensive market brief."

// Synthesizer produces the narrative of a run.
type Synthesizer struct {
	summarizer Summarizer
	logger     arbor.ILogger
}

func New(summarizer Summarizer, logger arbor.ILogger) *Synthesizer {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Synthesizer{summarizer: summarizer, logger: logger}
}

// BuildPrompt returns the system prompt for in. The data section follows llm.DataMarker.
func BuildPrompt(in *model.NarrativeInput) string {
	var b strings.Builder
	b.WriteString(briefPrompt)
	b.WriteString("\n\n")
	b.WriteString(llm.DataMarker)
	b.WriteString("\n")
	b.WriteString(in.ContextText)
	if in.PortfolioText == "" {
		b.WriteString("\n\nPortfolio Data: none provided")
	}
	if len(in.Documents) == 0 {
		b.WriteString("\n\nRecent Financial News: none found")
	}
	b.WriteString("\n\nFinancial Analysis/Context from Analysis Agent:\n")
	b.WriteString(in.Digest)
	return b.String()
}

// Synthesize returns the narrative, or an error wrapping model.ErrSynthesisFailure.
func (s *Synthesizer) Synthesize(ctx context.Context, in *model.NarrativeInput) (string, error) {
	if in == nil {
		return "", fmt.Errorf("synthesize: no narrative input: %w", model.ErrSynthesisFailure)
	}
	if s.summarizer == nil {
		return "", fmt.Errorf("synthesize: no summarizer configured: %w", model.ErrSynthesisFailure)
	}

	start := time.Now()
	text, err := s.summarizer.Summarize(ctx, BuildPrompt(in), briefInstruction)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w: %v", model.ErrSynthesisFailure, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("synthesize: empty narrative: %w", model.ErrSynthesisFailure)
	}

	s.logger.Info().
		Int("narrative_length", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Narrative synthesized")
	return text, nil
}
