package analysis

import (
	"context"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/repo"
	"github.com/jonathan/hackathon-judge/internal/store"
	"github.com/jonathan/hackathon-judge/internal/types"
)

// CodeWorker clones a project's repository and answers the code questions against it.
type CodeWorker struct {
	store     Store
	workspace *repo.Workspace
	embedder  llm.Embedder
	llm       llm.Client
	opts      Options
}

// NewCodeWorker creates a CodeWorker.
func NewCodeWorker(s Store, workspace *repo.Workspace, embedder llm.Embedder, client llm.Client, opts Options) *CodeWorker {
	return &CodeWorker{store: s, workspace: workspace, embedder: embedder, llm: client, opts: opts.withDefaults()}
}

// Run analyzes the repository at repoURL for projectID and writes codeAgentAnalysis.
// An empty repoURL falls back to the project's githubLink. The working directory is
// removed before Run returns.
func (w *CodeWorker) Run(ctx context.Context, projectID, repoURL string) (*Report, error) {
	report := newReport(WorkerCode, projectID)
	ctx, cancel := context.WithTimeout(ctx, w.opts.RunTimeout)
	defer cancel()

	report.transition(StageFetchingContext)
	rc, err := fetchContext(ctx, w.store, projectID)
	if err != nil {
		return report, report.fail(err)
	}
	if strings.TrimSpace(repoURL) == "" {
		repoURL = rc.project.GithubLink
	}
	questions := CodeQuestions(rc.hackathon.TechnologyList())

	var answers []types.QA
	if !rc.hackathon.Allowed() {
		report.QuotaExceeded = true
		report.logf("credit gate closed, skipping paid calls")
		answers = quotaAnswers(questions)
	} else {
		report.transition(StageRunning)
		answers, err = w.analyze(ctx, projectID, repoURL, questions)
		if err != nil {
			return report, report.fail(err)
		}
	}

	report.transition(StageWriting)
	if err := write(ctx, w.store, projectID, store.AnalysisUpdate{Code: answers}); err != nil {
		return report, report.fail(err)
	}
	report.Answers = answers
	report.transition(StageDone)
	report.logf("answers=%d failed=%d", len(answers), report.Failures())
	return report, nil
}

func (w *CodeWorker) analyze(ctx context.Context, projectID, repoURL string, questions []string) ([]types.QA, error) {
	var answers []types.QA
	cloned := false
	err := w.workspace.Acquire(ctx, projectID, repoURL, func(dir string) error {
		cloned = true
		chunks, err := repo.LoadDocuments(dir)
		if err != nil {
			return err
		}
		idx, err := repo.BuildIndex(ctx, w.embedder, chunks)
		if err != nil {
			return &ExternalServiceError{Service: "embedding", Op: "index repository", Cause: err}
		}
		answers, err = answerAll(ctx, questions, w.opts, func(ctx context.Context, question string) (string, error) {
			answer, err := idx.Query(ctx, question, w.llm)
			if err != nil {
				return "", &ExternalServiceError{Service: "llm", Op: "answer", Cause: err}
			}
			return answer, nil
		})
		return err
	})
	if err != nil && !cloned {
		return nil, &ExternalServiceError{Service: "git", Op: "clone", Cause: err}
	}
	return answers, err
}
