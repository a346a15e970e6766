package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"MarketBrief/internal/config"
	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"
	"MarketBrief/internal/notifier"
	"MarketBrief/internal/pipeline"
	"MarketBrief/internal/portfolio"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, q model.Query) *pipeline.Result
}

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const sendRetries = 3

// Scheduler manages cron briefs and answers chat commands.
type Scheduler struct {
	Cron          *cron.Cron
	Runner        Runner
	Notifier      Sender
	PortfolioFile string
	Ctx           context.Context

	logger arbor.ILogger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler. Notifier may be nil, in which case
// scheduled results are only logged.
func NewScheduler(ctx context.Context, runner Runner, sender Sender, portfolioFile string, logger arbor.ILogger) *Scheduler {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds()),
		Runner:        runner,
		Notifier:      sender,
		PortfolioFile: portfolioFile,
		Ctx:           ctx,
		logger:        logger,
		now:           time.Now,
	}
}

// RegisterAll registers every configured brief.
func (s *Scheduler) RegisterAll(briefs []config.ScheduledBrief) error {
	for _, b := range briefs {
		brief := b
		if _, err := s.Cron.AddFunc(brief.Cron, func() { s.RunBrief(brief) }); err != nil {
			return fmt.Errorf("register brief %q: %w", brief.Name, err)
		}
		s.logger.Info().Str("name", brief.Name).Str("cron", brief.Cron).Msg("Scheduled brief registered")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("entries", len(s.Cron.Entries())).Msg("Scheduler started")
}

// Stop stops the cron scheduler and waits for running briefs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// RunBrief answers a configured question and pushes the result.
func (s *Scheduler) RunBrief(b config.ScheduledBrief) {
	res := s.run(b.Question, "schedule:"+b.Name)
	if res == nil {
		return
	}
	s.trySend(s.format(b.Name, b.Question, res))
}

// HandleCommand processes a chat message and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	command = strings.TrimSpace(command)
	switch {
	case command == "" || command == "/help" || command == "/start":
		return notifier.FormatHelp()
	case command == "/portfolio":
		p, err := portfolio.Load(s.PortfolioFile)
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		return notifier.FormatPortfolio(p)
	case strings.HasPrefix(command, "/portfolio set"):
		return s.setPortfolio(strings.TrimSpace(strings.TrimPrefix(command, "/portfolio set")))
	case command == "/brief":
		return "Usage: /brief &lt;question&gt;"
	case strings.HasPrefix(command, "/brief "):
		command = strings.TrimSpace(strings.TrimPrefix(command, "/brief "))
	case strings.HasPrefix(command, "/"):
		return notifier.FormatHelp()
	}
	res := s.runCtx(ctx, command, "telegram")
	if res == nil {
		return "❌ portfolio could not be loaded"
	}
	return s.format("Brief", command, res)
}

// setPortfolio replaces the portfolio file with the given JSON object.
func (s *Scheduler) setPortfolio(text string) string {
	if text == "" {
		return "Usage: /portfolio set {\"AAPL\": 10}"
	}
	p, err := portfolio.Parse(text)
	if err != nil {
		return "❌ " + html.EscapeString(err.Error())
	}
	if err := portfolio.Save(s.PortfolioFile, p); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save portfolio")
		return "❌ " + html.EscapeString(err.Error())
	}
	s.logger.Info().Int("entries", len(p)).Msg("Portfolio updated")
	return notifier.FormatPortfolio(p)
}

func (s *Scheduler) run(question, source string) *pipeline.Result {
	return s.runCtx(s.Ctx, question, source)
}

func (s *Scheduler) runCtx(ctx context.Context, question, source string) *pipeline.Result {
	p, err := portfolio.Load(s.PortfolioFile)
	if err != nil {
		s.logger.Error().Err(err).Str("source", source).Msg("Failed to load portfolio")
		return nil
	}
	return s.Runner.Run(ctx, model.Query{Text: question, Portfolio: p, Source: source})
}

func (s *Scheduler) format(title, question string, res *pipeline.Result) string {
	if res.Failed {
		return notifier.FormatFailure(title, question, string(res.Fatal), res.Errors)
	}
	return notifier.FormatBrief(title, question, res.Narrative, res.Errors, s.now())
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		s.logger.Info().Str("message", text).Msg("No notifier configured, brief not sent")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.logger.Error().Err(err).Msg("Failed to send notification")
	}
}
