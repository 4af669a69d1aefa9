package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/hackathon-judge/internal/store"
	"github.com/jonathan/hackathon-judge/internal/types"
)

// Store is the part of the project store a worker reads and writes.
type Store interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)
	GetHackathon(ctx context.Context) (*types.Hackathon, error)
	UpdateAnalysis(ctx context.Context, id string, u store.AnalysisUpdate) (bool, error)
}

// Options bound a worker run.
type Options struct {
	// RunTimeout bounds a whole run. Expiry fails the run.
	RunTimeout time.Duration
	// CallTimeout bounds answering one question and the theme match.
	CallTimeout time.Duration
	// Concurrency is the number of questions answered at once.
	Concurrency int
}

// DefaultOptions returns the worker bounds used when none are configured.
func DefaultOptions() Options {
	return Options{
		RunTimeout:  10 * time.Minute,
		CallTimeout: 2 * time.Minute,
		Concurrency: 5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RunTimeout <= 0 {
		o.RunTimeout = d.RunTimeout
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = d.CallTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	return o
}

// runContext holds what FetchingContext read.
type runContext struct {
	project   *types.Project
	hackathon *types.Hackathon
}

// fetchContext reads the project and the hackathon record. A missing hackathon is valid.
func fetchContext(ctx context.Context, s Store, projectID string) (*runContext, error) {
	if err := types.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, &ExternalServiceError{Service: "store", Op: "get project", Cause: err}
	}
	if project == nil {
		return nil, &types.NotFoundError{Resource: "project", ID: projectID}
	}
	hackathon, err := s.GetHackathon(ctx)
	if err != nil {
		return nil, &ExternalServiceError{Service: "store", Op: "get hackathon", Cause: err}
	}
	return &runContext{project: project, hackathon: hackathon}, nil
}

// quotaAnswers answers every question with the quota message.
func quotaAnswers(questions []string) []types.QA {
	out := make([]types.QA, len(questions))
	for i, q := range questions {
		out[i] = types.QA{Question: q, Answer: types.QuotaExceededMessage}
	}
	return out
}

// answerAll answers questions concurrently and returns the pairs in question order.
// A failed question is recorded with Failed set and does not stop the others.
// It returns an error only when every question failed or ctx ended.
func answerAll(ctx context.Context, questions []string, opts Options, answer func(ctx context.Context, question string) (string, error)) ([]types.QA, error) {
	results := make([]types.QA, len(questions))
	var (
		mu       sync.Mutex
		firstErr error
		failures int
	)

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, q := range questions {
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
			defer cancel()

			text, err := answer(qctx, q)
			if err != nil {
				mu.Lock()
				failures++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				results[i] = types.QA{Question: q, Answer: fmt.Sprintf("Unable to answer this question: %v", err), Failed: true}
				return nil
			}
			results[i] = types.QA{Question: q, Answer: text}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run ended before all questions were answered: %w", err)
	}
	if len(questions) > 0 && failures == len(questions) {
		return nil, fmt.Errorf("all %d questions failed: %w", failures, firstErr)
	}
	return results, nil
}

// write applies u in one targeted update.
func write(ctx context.Context, s Store, projectID string, u store.AnalysisUpdate) error {
	matched, err := s.UpdateAnalysis(ctx, projectID, u)
	if err != nil {
		return &ExternalServiceError{Service: "store", Op: "update analysis", Cause: err}
	}
	if !matched {
		return &types.NotFoundError{Resource: "project", ID: projectID}
	}
	return nil
}

