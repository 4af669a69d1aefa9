// Package orchestrator accepts project submissions and fans analysis out to background workers.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/hackathon-judge/internal/analysis"
	"github.com/jonathan/hackathon-judge/internal/tasks"
	"github.com/jonathan/hackathon-judge/internal/types"
)

// ProjectCreator is the part of the project store the orchestrator writes.
type ProjectCreator interface {
	CreateProject(ctx context.Context, p *types.Project) (string, error)
}

// Orchestrator persists submissions and schedules their market and code analysis.
type Orchestrator struct {
	store      ProjectCreator
	dispatcher tasks.Dispatcher
	now        func() time.Time
}

// New creates an Orchestrator.
func New(store ProjectCreator, dispatcher tasks.Dispatcher) *Orchestrator {
	return &Orchestrator{store: store, dispatcher: dispatcher, now: time.Now}
}

// Submit validates req, persists the project and schedules both workers without waiting
// for them. A persistence failure is returned and schedules nothing. A scheduling failure
// is logged and leaves the project in place.
func (o *Orchestrator) Submit(ctx context.Context, req types.CreateProjectRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	project := &types.Project{
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		GithubLink:       req.GithubLink,
		Theme:            req.Theme,
		CreatedAt:        o.now().UTC(),
	}
	id, err := o.store.CreateProject(ctx, project)
	if err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}
	log.Printf("[CRUD] project_id=%s created", id)

	// Scheduling must not be cut short by the caller going away.
	dctx := context.WithoutCancel(ctx)
	for _, t := range []tasks.Task{
		tasks.NewTask(tasks.KindMarketAnalysis, id, req.ShortDescription),
		tasks.NewTask(tasks.KindCodeAnalysis, id, req.GithubLink),
	} {
		if err := o.dispatcher.Dispatch(dctx, t); err != nil {
			log.Printf("[DISPATCH] project_id=%s kind=%s not scheduled: %v", id, t.Kind, err)
			continue
		}
		log.Printf("[DISPATCH] project_id=%s kind=%s task=%s scheduled", id, t.Kind, t.ID)
	}
	return id, nil
}

// Runner is an analysis worker entry point. input is the idea for the market worker
// and the repository URL for the code worker.
type Runner interface {
	Run(ctx context.Context, projectID, input string) (*analysis.Report, error)
}

// NewRegistry routes market and code analysis tasks to the workers.
func NewRegistry(market, code Runner) *tasks.Registry {
	r := tasks.NewRegistry()
	r.Register(tasks.KindMarketAnalysis, func(ctx context.Context, t tasks.Task) error {
		_, err := market.Run(ctx, t.ProjectID, t.Payload)
		return err
	})
	r.Register(tasks.KindCodeAnalysis, func(ctx context.Context, t tasks.Task) error {
		_, err := code.Run(ctx, t.ProjectID, t.Payload)
		return err
	})
	return r
}
