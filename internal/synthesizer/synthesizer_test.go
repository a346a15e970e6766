package synthesizer

import (
	"context"
	"errors"
	"testing"

	"MarketBrief/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizer struct {
	out    string
	err    error
	system string
}

func (s *stubSummarizer) Summarize(_ context.Context, system, _ string) (string, error) {
	s.system = system
	return s.out, s.err
}

func input() *model.NarrativeInput {
	return &model.NarrativeInput{
		Question:    "How is AAPL doing?",
		ContextText: "User Question: How is AAPL doing?",
		Digest:      "AAPL rose 3.45%.",
	}
}

func TestSynthesize(t *testing.T) {
	s := &stubSummarizer{out: "  AAPL is up.\n"}
	text, err := New(s, nil).Synthesize(context.Background(), input())
	require.NoError(t, err)
	assert.Equal(t, "AAPL is up.", text)
	assert.Contains(t, s.system, "User Question: How is AAPL doing?")
	assert.Contains(t, s.system, "Portfolio Data: none provided")
	assert.Contains(t, s.system, "Recent Financial News: none found")
	assert.Contains(t, s.system, "AAPL rose 3.45%.")
}

func TestSynthesize_Failures(t *testing.T) {
	_, err := New(&stubSummarizer{err: errors.New("quota exceeded")}, nil).Synthesize(context.Background(), input())
	assert.ErrorIs(t, err, model.ErrSynthesisFailure)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, err = New(&stubSummarizer{out: "   "}, nil).Synthesize(context.Background(), input())
	assert.ErrorIs(t, err, model.ErrSynthesisFailure)

	_, err = New(&stubSummarizer{out: "x"}, nil).Synthesize(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrSynthesisFailure)
}
