package pipeline

import (
	"context"
	"fmt"
	"time"

	"MarketBrief/internal/collector"
	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"
	"MarketBrief/internal/recorder"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
)

// EntityExtractor turns a question into identifiers.
type EntityExtractor interface {
	Extract(ctx context.Context, question string) ([]string, error)
}

// MarketDataFetcher fetches quotes and series for every identifier.
type MarketDataFetcher interface {
	FetchAll(ctx context.Context, identifiers []string) *collector.Result
}

// DocumentRetriever fetches deduplicated documents for a run.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, identifiers []string, question string) ([]model.Document, []string)
}

// ContextAggregator returns the synthesizer input, recording its own errors on rc.
type ContextAggregator interface {
	Aggregate(ctx context.Context, rc *model.RunContext) *model.NarrativeInput
}

// NarrativeSynthesizer produces the final text.
type NarrativeSynthesizer interface {
	Synthesize(ctx context.Context, in *model.NarrativeInput) (string, error)
}

// RunRecorder receives every finished run.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec *recorder.RunRecord) error
}

// Deps are the stage implementations of a Controller. Recorder is optional.
type Deps struct {
	Extractor   EntityExtractor
	Market      MarketDataFetcher
	Documents   DocumentRetriever
	Aggregator  ContextAggregator
	Synthesizer NarrativeSynthesizer
	Recorder    RunRecorder
}

// Result is the outcome of one run. A failed run has no narrative and
// carries every error collected, the fatal one last.
type Result struct {
	RunID     string                          `json:"run_id"`
	Narrative string                          `json:"brief_text,omitempty"`
	Errors    []string                        `json:"errors"`
	Failed    bool                            `json:"failed"`
	Fatal     model.ErrorKind                 `json:"fatal_kind,omitempty"`
	Tickers   []string                        `json:"tickers"`
	Quotes    map[string]*model.QuoteSnapshot `json:"quotes,omitempty"`
	Documents []model.Document                `json:"documents,omitempty"`
	Started   time.Time                       `json:"started_at"`
	Finished  time.Time                       `json:"finished_at"`
}

// Controller runs queries through the fixed stage sequence. It holds no
// per-run state, so concurrent Run calls are safe.
type Controller struct {
	deps   Deps
	logger arbor.ILogger
	now    func() time.Time
}

func New(deps Deps, logger arbor.ILogger) *Controller {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Controller{deps: deps, logger: logger, now: time.Now}
}

// Run executes every stage for q. Stage errors are collected and the run
// continues; only NoUsableData and SynthesisFailure end it early.
func (c *Controller) Run(ctx context.Context, q model.Query) *Result {
	rc := model.NewRunContext(uuid.NewString(), q)
	rc.StartedAt = c.now()

	state := StateStart
	var fatal error
	for !state.Terminal() {
		before := len(rc.Errors)
		next, err := c.step(ctx, state, rc)
		for _, e := range rc.Errors[before:] {
			c.logger.Warn().
				Str("run_id", rc.RunID).
				Str("state", state.String()).
				Str("error", e).
				Msg("Stage error recorded")
		}
		if err != nil {
			fatal = err
			next = StateFailed
			c.logger.Error().
				Str("run_id", rc.RunID).
				Str("state", state.String()).
				Err(err).
				Msg("Pipeline aborted")
		}
		c.logger.Debug().
			Str("run_id", rc.RunID).
			Str("from", state.String()).
			Str("to", next.String()).
			Int("errors", len(rc.Errors)).
			Msg("Pipeline transition")
		state = next
	}

	res := c.result(rc, fatal)
	c.record(ctx, rc, res)

	c.logger.Info().
		Str("run_id", res.RunID).
		Str("source", q.Source).
		Strs("tickers", res.Tickers).
		Int("errors", len(res.Errors)).
		Str("fatal", string(res.Fatal)).
		Dur("elapsed", res.Finished.Sub(res.Started)).
		Msg("Pipeline run finished")
	return res
}

// step runs the stage for state and returns the next state. A returned error is fatal.
func (c *Controller) step(ctx context.Context, state State, rc *model.RunContext) (State, error) {
	switch state {
	case StateStart:
		return StateExtractEntities, nil

	case StateExtractEntities:
		ids, err := c.deps.Extractor.Extract(ctx, rc.Question())
		if err != nil {
			rc.AddError("%v", err)
		}
		rc.Identifiers = ids
		if rc.Identifiers == nil {
			rc.Identifiers = []string{}
		}
		return StateFetchMarketData, nil

	case StateFetchMarketData:
		res := c.deps.Market.FetchAll(ctx, rc.Identifiers)
		for id, q := range res.Quotes {
			rc.Quotes[id] = q
		}
		for id, s := range res.Series {
			rc.Series[id] = s
		}
		rc.AddErrors(res.Errors)
		return StateFetchDocuments, nil

	case StateFetchDocuments:
		docs, errs := c.deps.Documents.Retrieve(ctx, rc.Identifiers, rc.Question())
		rc.Documents = append(rc.Documents, docs...)
		rc.AddErrors(errs)
		return StateAggregate, nil

	case StateAggregate:
		if !rc.HasUsableData() {
			return StateFailed, fmt.Errorf("aggregate: no identifiers, quotes, documents or portfolio data: %w", model.ErrNoUsableData)
		}
		rc.Input = c.deps.Aggregator.Aggregate(ctx, rc)
		return StateSynthesize, nil

	case StateSynthesize:
		text, err := c.deps.Synthesizer.Synthesize(ctx, rc.Input)
		if err != nil {
			return StateFailed, err
		}
		rc.Narrative = text
		return StateDone, nil

	default:
		return StateFailed, fmt.Errorf("unknown pipeline state %d", state)
	}
}

func (c *Controller) result(rc *model.RunContext, fatal error) *Result {
	res := &Result{
		RunID:     rc.RunID,
		Errors:    append([]string{}, rc.Errors...),
		Tickers:   rc.Identifiers,
		Quotes:    rc.Quotes,
		Documents: rc.Documents,
		Started:   rc.StartedAt,
		Finished:  c.now(),
	}
	if res.Tickers == nil {
		res.Tickers = []string{}
	}
	if fatal != nil {
		res.Failed = true
		res.Fatal = model.Classify(fatal)
		res.Errors = append(res.Errors, fatal.Error())
		return res
	}
	res.Narrative = rc.Narrative
	return res
}

func (c *Controller) record(ctx context.Context, rc *model.RunContext, res *Result) {
	if c.deps.Recorder == nil {
		return
	}
	rec := &recorder.RunRecord{
		RunID:      res.RunID,
		Source:     rc.Query.Source,
		Question:   rc.Question(),
		Tickers:    res.Tickers,
		Documents:  len(res.Documents),
		Narrative:  res.Narrative,
		Errors:     res.Errors,
		Failed:     res.Failed,
		FatalKind:  string(res.Fatal),
		StartedAt:  res.Started,
		FinishedAt: res.Finished,
	}
	for _, id := range res.Tickers {
		q, ok := res.Quotes[id]
		if !ok {
			continue
		}
		rec.Quotes = append(rec.Quotes, recorder.QuoteRecord{
			Identifier:    id,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		})
	}
	if err := c.deps.Recorder.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		c.logger.Warn().Str("run_id", res.RunID).Err(err).Msg("Failed to record run")
	}
}
