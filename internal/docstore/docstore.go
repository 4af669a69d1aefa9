// Package docstore provides a MongoDB-backed project store.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hackathon-judge/internal/store"
	"github.com/jonathan/hackathon-judge/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	projectsCollection   = "projects"
	hackathonsCollection = "hackathons"
	hackathonID          = "current"
)

// Store keeps projects and the hackathon record in MongoDB collections.
type Store struct {
	client     *mongo.Client
	projects   *mongo.Collection
	hackathons *mongo.Collection
}

// hackathonDoc is the persisted hackathon record with its fixed document ID.
type hackathonDoc struct {
	ID              string `bson:"_id"`
	types.Hackathon `bson:",inline"`
}

// Connect opens a client against uri and verifies it with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	db := client.Database(database)
	return &Store{
		client:     client,
		projects:   db.Collection(projectsCollection),
		hackathons: db.Collection(hackathonsCollection),
	}, nil
}

// CreateProject inserts p under a new ID.
func (s *Store) CreateProject(ctx context.Context, p *types.Project) (string, error) {
	doc := store.CloneProject(p)
	doc.ID = uuid.New().String()
	doc.IsReviewed = false
	doc.MarketAgentAnalysis = nil
	doc.CodeAgentAnalysis = nil
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.projects.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert project: %w", err)
	}
	return doc.ID, nil
}

// GetProject returns the project or nil when absent.
func (s *Store) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var p types.Project
	err := s.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]types.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.projects.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer cur.Close(ctx)

	projects := []types.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// UpdateAnalysis applies u with a single $set.
func (s *Store) UpdateAnalysis(ctx context.Context, id string, u store.AnalysisUpdate) (bool, error) {
	set, err := analysisSet(u)
	if err != nil {
		return false, err
	}
	res, err := s.projects.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update analysis: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// SetReviewed sets the review flag.
func (s *Store) SetReviewed(ctx context.Context, id string, reviewed bool) (bool, error) {
	res, err := s.projects.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isReviewed": reviewed}})
	if err != nil {
		return false, fmt.Errorf("failed to update review flag: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// GetHackathon returns the hackathon record or nil.
func (s *Store) GetHackathon(ctx context.Context) (*types.Hackathon, error) {
	var doc hackathonDoc
	err := s.hackathons.FindOne(ctx, bson.M{"_id": hackathonID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get hackathon: %w", err)
	}
	return &doc.Hackathon, nil
}

// SaveHackathon upserts the hackathon record.
func (s *Store) SaveHackathon(ctx context.Context, h *types.Hackathon) error {
	doc := hackathonDoc{ID: hackathonID, Hackathon: *store.CloneHackathon(h)}
	if doc.Technologies == nil {
		doc.Technologies = []string{}
	}
	_, err := s.hackathons.ReplaceOne(ctx, bson.M{"_id": hackathonID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save hackathon: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

func analysisSet(u store.AnalysisUpdate) (bson.M, error) {
	set := bson.M{}
	if u.Market != nil {
		set["marketAgentAnalysis"] = u.Market
		if u.Theme != nil {
			set["theme"] = *u.Theme
		}
	}
	if u.Code != nil {
		set["codeAgentAnalysis"] = u.Code
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("empty analysis update")
	}
	return set, nil
}
