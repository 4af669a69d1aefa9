package store

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/jonathan/hackathon-judge/internal/types"
)

const (
	projectTable   = "projects"
	hackathonTable = "hackathons"
	hackathonKey   = "current"
)

type projectRecord struct {
	ID      string
	Seq     uint64
	Project *types.Project
}

type hackathonRecord struct {
	Key       string
	Hackathon *types.Hackathon
}

func memorySchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			projectTable: {
				Name: projectTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.UUIDFieldIndex{Field: "ID"},
					},
				},
			},
			hackathonTable: {
				Name: hackathonTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}

// MemoryStore is a Store backed by go-memdb. Stored records are immutable;
// every update inserts a modified copy inside a write transaction.
type MemoryStore struct {
	db  *memdb.MemDB
	seq atomic.Uint64
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() (*MemoryStore, error) {
	db, err := memdb.NewMemDB(memorySchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	return &MemoryStore{db: db, now: time.Now}, nil
}

// CreateProject inserts a copy of p under a new ID.
func (s *MemoryStore) CreateProject(_ context.Context, p *types.Project) (string, error) {
	rec := &projectRecord{
		ID:      uuid.New().String(),
		Seq:     s.seq.Add(1),
		Project: CloneProject(p),
	}
	rec.Project.ID = rec.ID
	rec.Project.IsReviewed = false
	rec.Project.MarketAgentAnalysis = nil
	rec.Project.CodeAgentAnalysis = nil
	if rec.Project.CreatedAt.IsZero() {
		rec.Project.CreatedAt = s.now().UTC()
	}

	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(projectTable, rec); err != nil {
		return "", fmt.Errorf("failed to insert project: %w", err)
	}
	txn.Commit()
	return rec.ID, nil
}

// GetProject returns a copy of the stored project, or nil when absent.
func (s *MemoryStore) GetProject(_ context.Context, id string) (*types.Project, error) {
	rec, err := s.findProject(s.db.Txn(false), id)
	if err != nil || rec == nil {
		return nil, err
	}
	return CloneProject(rec.Project), nil
}

// ListProjects returns all projects in reverse insertion order.
func (s *MemoryStore) ListProjects(_ context.Context) ([]types.Project, error) {
	it, err := s.db.Txn(false).Get(projectTable, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var recs []*projectRecord
	for obj := it.Next(); obj != nil; obj = it.Next() {
		recs = append(recs, obj.(*projectRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq > recs[j].Seq })

	projects := make([]types.Project, 0, len(recs))
	for _, rec := range recs {
		projects = append(projects, *CloneProject(rec.Project))
	}
	return projects, nil
}

// UpdateAnalysis applies u to the project with the given ID.
func (s *MemoryStore) UpdateAnalysis(_ context.Context, id string, u AnalysisUpdate) (bool, error) {
	return s.modify(id, func(p *types.Project) {
		if u.Market != nil {
			market := append([]types.QA(nil), u.Market...)
			p.MarketAgentAnalysis = &market
			if u.Theme != nil {
				p.Theme = *u.Theme
			}
		}
		if u.Code != nil {
			code := append([]types.QA(nil), u.Code...)
			p.CodeAgentAnalysis = &code
		}
	})
}

// SetReviewed sets the review flag.
func (s *MemoryStore) SetReviewed(_ context.Context, id string, reviewed bool) (bool, error) {
	return s.modify(id, func(p *types.Project) {
		p.IsReviewed = reviewed
	})
}

func (s *MemoryStore) modify(id string, fn func(p *types.Project)) (bool, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	rec, err := s.findProject(txn, id)
	if err != nil || rec == nil {
		return false, err
	}
	updated := &projectRecord{ID: rec.ID, Seq: rec.Seq, Project: CloneProject(rec.Project)}
	fn(updated.Project)
	if err := txn.Insert(projectTable, updated); err != nil {
		return false, fmt.Errorf("failed to update project: %w", err)
	}
	txn.Commit()
	return true, nil
}

func (s *MemoryStore) findProject(txn *memdb.Txn, id string) (*projectRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	obj, err := txn.First(projectTable, "id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*projectRecord), nil
}

// GetHackathon returns the configured hackathon or nil.
func (s *MemoryStore) GetHackathon(_ context.Context) (*types.Hackathon, error) {
	obj, err := s.db.Txn(false).First(hackathonTable, "id", hackathonKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get hackathon: %w", err)
	}
	if obj == nil {
		return nil, nil
	}
	return CloneHackathon(obj.(*hackathonRecord).Hackathon), nil
}

// SaveHackathon replaces the hackathon record.
func (s *MemoryStore) SaveHackathon(_ context.Context, h *types.Hackathon) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(hackathonTable, &hackathonRecord{Key: hackathonKey, Hackathon: CloneHackathon(h)}); err != nil {
		return fmt.Errorf("failed to save hackathon: %w", err)
	}
	txn.Commit()
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() {}
