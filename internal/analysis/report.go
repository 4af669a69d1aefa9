// Package analysis runs the market and code analysis workers that enrich a submitted project.
//
// Each run moves through pending, fetching_context, running, writing and done, or ends in
// failed from any non-terminal stage. A run writes its answers with one targeted update and
// never writes partial results after a run-level failure.
package analysis

import (
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/types"
)

// Stage is a step of a worker run.
type Stage string

const (
	StagePending         Stage = "pending"
	StageFetchingContext Stage = "fetching_context"
	StageRunning         Stage = "running"
	StageWriting         Stage = "writing"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Worker names used in reports and logs.
const (
	WorkerMarket = "market"
	WorkerCode   = "code"
)

// ExternalServiceError wraps a failure of a hosted collaborator: the model, the embedding
// provider, the search tool, git or the store.
type ExternalServiceError struct {
	Service string
	Op      string
	Cause   error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Cause)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}

// Report is the outcome of one worker run.
type Report struct {
	ProjectID string
	Worker    string
	Stage     Stage
	Answers   []types.QA
	// Theme is the validated theme written by the market worker, empty when left unchanged.
	Theme string
	// QuotaExceeded is set when the credit gate short-circuited the run.
	QuotaExceeded bool
	Err           error
}

func newReport(worker, projectID string) *Report {
	r := &Report{ProjectID: projectID, Worker: worker, Stage: StagePending}
	r.logf("stage=%s", r.Stage)
	return r
}

func (r *Report) transition(to Stage) {
	if r.Stage.Terminal() {
		return
	}
	r.Stage = to
	r.logf("stage=%s", to)
}

// fail moves the run to failed and returns err.
func (r *Report) fail(err error) error {
	if r.Stage.Terminal() {
		return err
	}
	r.logf("stage=%s from=%s error=%q", StageFailed, r.Stage, err.Error())
	r.Stage = StageFailed
	r.Err = err
	return err
}

func (r *Report) logf(format string, args ...any) {
	prefix := fmt.Sprintf("[%s] project_id=%s worker=%s ", strings.ToUpper(r.Worker), r.ProjectID, r.Worker)
	log.Printf(prefix+format, args...)
}

// Failures counts the answers marked failed.
func (r *Report) Failures() int {
	n := 0
	for _, qa := range r.Answers {
		if qa.Failed {
			n++
		}
	}
	return n
}
