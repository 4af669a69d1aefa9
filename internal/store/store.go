// Package store defines the Project Store collaborator and an in-memory implementation.
package store

import (
	"context"

	"github.com/jonathan/hackathon-judge/internal/types"
)

// AnalysisUpdate is a targeted update of one worker's output.
// Exactly one of Market or Code is expected to be set; Theme is only honoured alongside Market.
type AnalysisUpdate struct {
	Market []types.QA
	Code   []types.QA
	Theme  *string
}

// Store persists projects and the singleton hackathon record.
type Store interface {
	// CreateProject inserts p with a new ID and isReviewed=false and returns the ID.
	CreateProject(ctx context.Context, p *types.Project) (string, error)
	// GetProject returns nil, nil when the project does not exist.
	GetProject(ctx context.Context, id string) (*types.Project, error)
	// ListProjects returns every project, newest first.
	ListProjects(ctx context.Context) ([]types.Project, error)
	// UpdateAnalysis applies u in a single atomic update and reports whether the project matched.
	UpdateAnalysis(ctx context.Context, id string, u AnalysisUpdate) (bool, error)
	// SetReviewed sets isReviewed and reports whether the project matched.
	SetReviewed(ctx context.Context, id string, reviewed bool) (bool, error)
	// GetHackathon returns nil, nil when no hackathon has been configured.
	GetHackathon(ctx context.Context) (*types.Hackathon, error)
	// SaveHackathon replaces the singleton hackathon record.
	SaveHackathon(ctx context.Context, h *types.Hackathon) error
	Ping(ctx context.Context) error
	Close()
}

// CloneProject returns a deep copy of p so callers never share analysis slices with a store.
func CloneProject(p *types.Project) *types.Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.MarketAgentAnalysis = cloneQA(p.MarketAgentAnalysis)
	cp.CodeAgentAnalysis = cloneQA(p.CodeAgentAnalysis)
	return &cp
}

func cloneQA(qa *[]types.QA) *[]types.QA {
	if qa == nil {
		return nil
	}
	out := make([]types.QA, len(*qa))
	copy(out, *qa)
	return &out
}

// CloneHackathon returns a deep copy of h.
func CloneHackathon(h *types.Hackathon) *types.Hackathon {
	if h == nil {
		return nil
	}
	cp := *h
	cp.Technologies = append([]string(nil), h.Technologies...)
	return &cp
}
