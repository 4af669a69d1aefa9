package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/prompts"
	"github.com/jonathan/hackathon-judge/internal/store"
)

// Answerer answers a research question, typically with web search.
type Answerer interface {
	Run(ctx context.Context, question string) (string, error)
}

// MarketWorker researches the market for a project idea and matches it to a hackathon theme.
type MarketWorker struct {
	store   Store
	agent   Answerer
	matcher *ThemeMatcher
	opts    Options
}

// NewMarketWorker creates a MarketWorker.
func NewMarketWorker(s Store, agent Answerer, matcher *ThemeMatcher, opts Options) *MarketWorker {
	return &MarketWorker{store: s, agent: agent, matcher: matcher, opts: opts.withDefaults()}
}

// Run analyzes idea for projectID and writes marketAgentAnalysis and, when the match is
// valid, theme. An empty idea falls back to the project's short description.
func (w *MarketWorker) Run(ctx context.Context, projectID, idea string) (*Report, error) {
	report := newReport(WorkerMarket, projectID)
	ctx, cancel := context.WithTimeout(ctx, w.opts.RunTimeout)
	defer cancel()

	report.transition(StageFetchingContext)
	rc, err := fetchContext(ctx, w.store, projectID)
	if err != nil {
		return report, report.fail(err)
	}
	if strings.TrimSpace(idea) == "" {
		idea = rc.project.ShortDescription
	}

	update := store.AnalysisUpdate{}
	if !rc.hackathon.Allowed() {
		report.QuotaExceeded = true
		report.logf("credit gate closed, skipping paid calls")
		update.Market = quotaAnswers(MarketQuestions)
	} else {
		report.transition(StageRunning)
		answers, err := answerAll(ctx, MarketQuestions, w.opts, func(ctx context.Context, question string) (string, error) {
			return w.answer(ctx, idea, question)
		})
		if err != nil {
			return report, report.fail(err)
		}
		update.Market = answers

		mctx, mcancel := context.WithTimeout(ctx, w.opts.CallTimeout)
		theme, ok := w.matcher.Match(mctx, rc.hackathon.Themes(), idea)
		mcancel()
		if ok {
			update.Theme = &theme
			report.Theme = theme
		}
	}

	report.transition(StageWriting)
	if err := write(ctx, w.store, projectID, update); err != nil {
		return report, report.fail(err)
	}
	report.Answers = update.Market
	report.transition(StageDone)
	report.logf("answers=%d failed=%d theme=%q", len(report.Answers), report.Failures(), report.Theme)
	return report, nil
}

func (w *MarketWorker) answer(ctx context.Context, idea, question string) (string, error) {
	prompt, err := prompts.Render("market.json", "analyst", map[string]string{
		"Idea":     idea,
		"Question": question,
	})
	if err != nil {
		return "", err
	}
	answer, err := w.agent.Run(ctx, prompt)
	if err != nil {
		return "", &ExternalServiceError{Service: "agent", Op: "answer", Cause: err}
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("empty answer")
	}
	return answer, nil
}
