package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketBrief/internal/aggregator"
	"MarketBrief/internal/collector"
	"MarketBrief/internal/extractor"
	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/retriever"
	"MarketBrief/internal/synthesizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type tickerSource struct {
	tickers []string
	err     error
}

func (s tickerSource) ExtractTickers(context.Context, string) ([]string, error) {
	return s.tickers, s.err
}

type searcher struct {
	docs map[string][]model.Document
}

func (s searcher) Search(_ context.Context, query string, _ int) ([]model.Document, error) {
	return s.docs[query], nil
}

type summarizer struct {
	out string
	err error
}

func (s summarizer) Summarize(context.Context, string, string) (string, error) {
	return s.out, s.err
}

type memRecorder struct {
	mu   sync.Mutex
	runs []*recorder.RunRecord
	err  error
}

func (m *memRecorder) RecordRun(_ context.Context, rec *recorder.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return m.err
}

type fixture struct {
	source tickerSource
	market *collector.MockFetcher
	search searcher
	digest summarizer
	brief  summarizer
	rec    *memRecorder
}

func newFixture() *fixture {
	d := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
	return &fixture{
		market: &collector.MockFetcher{
			Quotes: map[string]*model.QuoteSnapshot{
				"AAPL": {Price: model.Float(150), PreviousClose: model.Float(145)},
			},
			Series: map[string][]model.DayBar{
				"AAPL": {
					{Date: d(5), Close: model.Float(150)},
					{Date: d(4), Close: model.Float(145)},
				},
			},
		},
		search: searcher{docs: map[string][]model.Document{}},
		digest: summarizer{out: "digest"},
		brief:  summarizer{out: "AAPL closed at 150.00, up 3.45%."},
		rec:    &memRecorder{},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Extractor:   extractor.New(f.source, nil),
		Market:      collector.NewCollector(f.market, "6mo", 2, nil),
		Documents:   retriever.New(f.search, nil),
		Aggregator:  aggregator.New(f.digest, nil),
		Synthesizer: synthesizer.New(f.brief, nil),
		Recorder:    f.rec,
	}
}

func (f *fixture) controller() *Controller {
	return New(f.deps(), nil)
}

// staticAggregator returns its input without touching the run context.
type staticAggregator struct{ digest string }

func (a staticAggregator) Aggregate(_ context.Context, rc *model.RunContext) *model.NarrativeInput {
	return &model.NarrativeInput{Question: rc.Question(), Identifiers: rc.Identifiers, Digest: a.digest}
}

type recordingSynthesizer struct{ got *model.NarrativeInput }

func (s *recordingSynthesizer) Synthesize(_ context.Context, in *model.NarrativeInput) (string, error) {
	s.got = in
	if in == nil {
		return "", model.ErrSynthesisFailure
	}
	return "brief from " + in.Digest, nil
}

type logLine struct {
	level  string
	msg    string
	fields []string
}

// captureLogger records WARN and ERROR events and drops the rest.
type captureLogger struct {
	arbor.ILogger
	mu    sync.Mutex
	lines []logLine
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{ILogger: applog.Discard()}
}

func (l *captureLogger) Warn() arbor.ILogEvent { return l.event("WARN") }
func (l *captureLogger) Error() arbor.ILogEvent { return l.event("ERROR") }

func (l *captureLogger) event(level string) arbor.ILogEvent {
	return &captureEvent{ILogEvent: applog.Discard().Info(), log: l, line: logLine{level: level}}
}

func (l *captureLogger) at(level string) []logLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logLine
	for _, line := range l.lines {
		if line.level == level {
			out = append(out, line)
		}
	}
	return out
}

type captureEvent struct {
	arbor.ILogEvent
	log  *captureLogger
	line logLine
}

func (e *captureEvent) Str(k, v string) arbor.ILogEvent {
	e.line.fields = append(e.line.fields, k+"="+v)
	return e
}

func (e *captureEvent) Err(err error) arbor.ILogEvent {
	e.line.fields = append(e.line.fields, "error="+err.Error())
	return e
}

func (e *captureEvent) Int(string, int) arbor.ILogEvent { return e }
func (e *captureEvent) Strs(string, []string) arbor.ILogEvent { return e }
func (e *captureEvent) Dur(string, time.Duration) arbor.ILogEvent { return e }
func (e *captureEvent) Bool(string, bool) arbor.ILogEvent { return e }

func (e *captureEvent) Msg(msg string) {
	e.line.msg = msg
	e.log.mu.Lock()
	defer e.log.mu.Unlock()
	e.log.lines = append(e.log.lines, e.line)
}

func TestRun_EndToEnd(t *testing.T) {
	f := newFixture()
	f.source.tickers = []string{"AAPL"}

	res := f.controller().Run(context.Background(), model.Query{Text: "How is AAPL doing?", Portfolio: map[string]any{}})

	require.False(t, res.Failed, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Equal(t, model.KindNone, res.Fatal)
	assert.Equal(t, "AAPL closed at 150.00, up 3.45%.", res.Narrative)
	assert.Equal(t, []string{"AAPL"}, res.Tickers)
	assert.NotEmpty(t, res.RunID)

	q := res.Quotes["AAPL"]
	require.NotNil(t, q)
	assert.InDelta(t, 5.0, *q.Change, 1e-9)
	assert.InDelta(t, 3.45, *q.ChangePercent, 0.01)

	require.Len(t, f.rec.runs, 1)
	assert.Equal(t, res.RunID, f.rec.runs[0].RunID)
	require.Len(t, f.rec.runs[0].Quotes, 1)
	assert.False(t, res.Finished.Before(res.Started))
}

func TestRun_NoIdentifiersUsesDocuments(t *testing.T) {
	f := newFixture()
	question := "What's the market doing?"
	f.search.docs[question] = []model.Document{{Source: "Reuters", Title: "Stocks rally", URL: "u1"}}

	res := f.controller().Run(context.Background(), model.Query{Text: question})

	require.False(t, res.Failed, "errors: %v", res.Errors)
	assert.NotEmpty(t, res.Narrative)
	assert.Empty(t, res.Tickers)
	assert.Len(t, res.Documents, 1)
	assert.Equal(t, 0, f.market.Calls("AAPL"))
}

func TestRun_NoUsableData(t *testing.T) {
	f := newFixture()

	res := f.controller().Run(context.Background(), model.Query{Text: "What's the market doing?"})

	assert.True(t, res.Failed)
	assert.Equal(t, model.KindNoUsableData, res.Fatal)
	assert.Empty(t, res.Narrative)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[len(res.Errors)-1], "no usable data")

	require.Len(t, f.rec.runs, 1)
	assert.True(t, f.rec.runs[0].Failed)
	assert.Equal(t, "NoUsableData", f.rec.runs[0].FatalKind)
}

func TestRun_EmptyQuestionWithPortfolio(t *testing.T) {
	f := newFixture()

	res := f.controller().Run(context.Background(), model.Query{Text: "  ", Portfolio: map[string]any{"AAPL": 0.5}})
	assert.False(t, res.Failed, "errors: %v", res.Errors)
	assert.NotEmpty(t, res.Narrative)

	res = f.controller().Run(context.Background(), model.Query{Text: ""})
	assert.Equal(t, model.KindNoUsableData, res.Fatal)
}

func TestRun_ExtractorFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.source.err = errors.New("model quota exceeded")
	f.search.docs["Tell me about chips"] = []model.Document{{Title: "Chip stocks", URL: "u"}}

	res := f.controller().Run(context.Background(), model.Query{Text: "Tell me about chips"})

	require.False(t, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "model quota exceeded")
}

func TestRun_IsolatesPerIdentifierFailure(t *testing.T) {
	f := newFixture()
	f.source.tickers = []string{"AAPL", "MSFT"}
	f.market.QuoteErrors = map[string]error{"MSFT": model.ErrUpstreamUnavailable}

	res := f.controller().Run(context.Background(), model.Query{Text: "AAPL vs MSFT"})

	require.False(t, res.Failed)
	assert.Contains(t, res.Quotes, "AAPL")
	assert.NotContains(t, res.Quotes, "MSFT")
	require.NotEmpty(t, res.Errors)
	for _, e := range res.Errors {
		assert.Contains(t, e, "MSFT")
	}
}

func TestRun_SynthesisFailure(t *testing.T) {
	f := newFixture()
	f.source.tickers = []string{"AAPL"}
	f.digest.err = errors.New("digest down")
	f.brief.err = errors.New("brief down")

	res := f.controller().Run(context.Background(), model.Query{Text: "How is AAPL doing?"})

	assert.True(t, res.Failed)
	assert.Equal(t, model.KindSynthesisFailure, res.Fatal)
	assert.Empty(t, res.Narrative)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "digest down")
	assert.Contains(t, res.Errors[1], "brief down")
}

func TestRun_RecorderFailureIgnored(t *testing.T) {
	f := newFixture()
	f.source.tickers = []string{"AAPL"}
	f.rec.err = errors.New("disk full")

	res := f.controller().Run(context.Background(), model.Query{Text: "AAPL?"})
	assert.False(t, res.Failed)
	assert.Empty(t, res.Errors)
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	f := newFixture()
	f.source.tickers = []string{"AAPL"}
	c := f.controller()

	const n = 8
	results := make([]*Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Run(context.Background(), model.Query{Text: "How is AAPL doing?"})
		}()
	}
	wg.Wait()

	ids := map[string]bool{}
	for _, r := range results {
		assert.False(t, r.Failed)
		ids[r.RunID] = true
	}
	assert.Len(t, ids, n)
	assert.Len(t, f.rec.runs, n)
}

func TestRun_UsesReturnedNarrativeInput(t *testing.T) {
	f := newFixture()
	f.source.tickers = []string{"AAPL"}
	synth := &recordingSynthesizer{}
	deps := f.deps()
	deps.Aggregator = staticAggregator{digest: "static digest"}
	deps.Synthesizer = synth

	res := New(deps, nil).Run(context.Background(), model.Query{Text: "How is AAPL doing?"})

	require.False(t, res.Failed, "errors: %v", res.Errors)
	assert.Equal(t, "brief from static digest", res.Narrative)
	require.NotNil(t, synth.got)
	assert.Equal(t, []string{"AAPL"}, synth.got.Identifiers)
	assert.Equal(t, "How is AAPL doing?", synth.got.Question)
}

func TestRun_LogsStageErrorsAndAbort(t *testing.T) {
	f := newFixture()
	f.source.tickers = []string{"AAPL", "MSFT"}
	f.market.QuoteErrors = map[string]error{"MSFT": model.ErrUpstreamUnavailable}
	f.brief.err = errors.New("brief down")
	logs := newCaptureLogger()

	res := New(f.deps(), logs).Run(context.Background(), model.Query{Text: "AAPL vs MSFT"})

	require.True(t, res.Failed)
	require.Greater(t, len(res.Errors), 1)

	warns := logs.at("WARN")
	require.Len(t, warns, len(res.Errors)-1)
	for i, w := range warns {
		assert.Equal(t, "Stage error recorded", w.msg)
		assert.Contains(t, w.fields, "error="+res.Errors[i])
	}
	assert.Contains(t, warns[0].fields, "state=FetchMarketData")

	errs := logs.at("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "Pipeline aborted", errs[0].msg)
	assert.Contains(t, errs[0].fields, "state=Synthesize")
	assert.Contains(t, errs[0].fields, "error="+res.Errors[len(res.Errors)-1])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ExtractEntities", StateExtractEntities.String())
	assert.Equal(t, "Done", StateDone.String())
	assert.Equal(t, "Unknown", State(99).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateAggregate.Terminal())
}
